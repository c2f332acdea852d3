package serve

import (
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cmdUtil "github.com/ValentinKolb/rdv/cmd/util"
	"github.com/ValentinKolb/rdv/rpc/common"
	"github.com/ValentinKolb/rdv/rpc/daemon"
	"github.com/VictoriaMetrics/metrics"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the rdv coordination daemon",
		Long:    `Start the rdv coordination daemon with the specified configuration. The daemon accepts exactly world-size member connections and serves their requests until the group finishes or any member fails. The configuration can be set via command line flags or environment variables. The format of the environment variables is RDV_<flag> (e.g. RDV_WORLD_SIZE=4)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:29500", cmdUtil.WrapString("The address on which the daemon will listen (host:port)"))

	key = "world-size"
	ServeCmd.PersistentFlags().Int(key, 1, cmdUtil.WrapString("WorldSize is the exact number of member connections the daemon waits for before serving. The daemon never accepts more"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 10, cmdUtil.WrapString("Timeout in seconds for reply writes to members"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("If set, the daemon exposes prometheus metrics and pprof on this address (e.g. localhost:9100). Empty disables the metrics server"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY for member connections"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval for member connections (in seconds, 0 to disable)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The linger time for member connections (in seconds, 0 to disable)"))

	key = "write-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The socket write buffer size (in KB, 0 for the system default)"))

	key = "read-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The socket read buffer size (in KB, 0 for the system default)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the daemon configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.WorldSize = viper.GetInt("world-size")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.Socket = common.SocketConf{
		WriteBufferSize: viper.GetInt("write-buffer") * 1024,
		ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
	}
	serveCmdConfig.TCP = common.TCPConf{
		TCPNoDelay:      viper.GetBool("tcp-nodelay"),
		TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
		TCPLingerSec:    viper.GetInt("tcp-linger"),
	}

	return serveCmdConfig.Validate()
}

// run starts the rdv daemon
func run(_ *cobra.Command, _ []string) error {
	common.InitLoggers(serveCmdConfig.LogLevel)
	log := logger.GetLogger("daemon")

	log.Infof("starting daemon with config: %v", serveCmdConfig)

	d, err := daemon.Listen(*serveCmdConfig)
	if err != nil {
		return err
	}

	// optional metrics + pprof endpoint
	if serveCmdConfig.MetricsEndpoint != "" {
		go func() {
			mux := http.NewServeMux()
			mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
				metrics.WritePrometheus(w, true)
			})
			mux.Handle("/debug/pprof/", http.DefaultServeMux)
			log.Infof("metrics server listening on %s", serveCmdConfig.MetricsEndpoint)
			if err := http.ListenAndServe(serveCmdConfig.MetricsEndpoint, mux); err != nil {
				log.Errorf("metrics server failed: %v", err)
			}
		}()
	}

	// shut the group down on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Infof("received signal %v, shutting down", sig)
			d.Close()
		case <-d.Done():
		}
	}()

	return d.Serve()
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("rdv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
