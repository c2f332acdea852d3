package kv

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/rdv/cmd/util"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for rdv daemons",
		Long:    "",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 1000
	perfOps              = 1000
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("Number of operations to run per benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys")
	perfOps = viper.GetInt("ops")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for rdv daemons")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Operations per test: %d\n", perfOps)
	fmt.Println()

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]gometrics.Timer)

	setTimer := gometrics.NewTimer()
	if !shouldSkip("set") {
		getKey, _ := getKeys("set")
		for i := 0; i < perfOps; i++ {
			key := getKey(i)
			setTimer.Time(func() {
				if err := rpcStore.Set(key, []byte("test")); err != nil {
					fmt.Printf("(set) - error setting key: %v\n", err)
				}
			})
		}
	}
	results["set"] = setTimer
	printResult("set", setTimer)

	setLargeTimer := gometrics.NewTimer()
	if !shouldSkip("set-large") {
		largeValue := make([]byte, perfLargeValueSizeKB*1024)
		getKey, _ := getKeys("set-large")
		for i := 0; i < perfOps; i++ {
			key := getKey(i)
			setLargeTimer.Time(func() {
				if err := rpcStore.Set(key, largeValue); err != nil {
					fmt.Printf("(set-large) - error setting key: %v\n", err)
				}
			})
		}
	}
	results["set-large"] = setLargeTimer
	printResult("set-large", setLargeTimer)

	getTimer := gometrics.NewTimer()
	if !shouldSkip("get") {
		// set keys first so a get never blocks
		getKey, iter := getKeys("get")
		iter(func(k string) {
			if err := rpcStore.Set(k, []byte("test")); err != nil {
				fmt.Printf("(get) - error setting key: %v\n", err)
			}
		})
		for i := 0; i < perfOps; i++ {
			key := getKey(i)
			getTimer.Time(func() {
				if _, err := rpcStore.Get(key); err != nil {
					fmt.Printf("(get) - error getting key: %v\n", err)
				}
			})
		}
	}
	results["get"] = getTimer
	printResult("get", getTimer)

	waitTimer := gometrics.NewTimer()
	if !shouldSkip("wait") {
		// set keys first so a wait never blocks
		getKey, iter := getKeys("wait")
		iter(func(k string) {
			if err := rpcStore.Set(k, []byte("test")); err != nil {
				fmt.Printf("(wait) - error setting key: %v\n", err)
			}
		})
		for i := 0; i < perfOps; i++ {
			keys := []string{getKey(i)}
			waitTimer.Time(func() {
				if err := rpcStore.Wait(keys); err != nil {
					fmt.Printf("(wait) - error waiting for key: %v\n", err)
				}
			})
		}
	}
	results["wait"] = waitTimer
	printResult("wait", waitTimer)

	mixedTimer := gometrics.NewTimer()
	if !shouldSkip("mixed") {
		getKey, iter := getKeys("mixed")
		iter(func(k string) {
			if err := rpcStore.Set(k, []byte("test")); err != nil {
				fmt.Printf("(mixed) - error setting key: %v\n", err)
			}
		})
		for i := 0; i < perfOps; i++ {
			key := getKey(i)
			op := i % 3
			mixedTimer.Time(func() {
				var err error
				switch op {
				case 0: // set
					err = rpcStore.Set(key, []byte("test"))
				case 1: // get
					_, err = rpcStore.Get(key)
				case 2: // wait
					err = rpcStore.Wait([]string{key})
				}
				if err != nil {
					fmt.Printf("(mixed) - error performing operation (%d): %v\n", op, err)
				}
			})
		}
	}
	results["mixed"] = mixedTimer
	printResult("mixed", mixedTimer)

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, timer gometrics.Timer) {
	if timer.Count() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(timer.Mean(), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\tp99=%s\t%.0f ops/sec\n",
		test, nsPerOp, time.Duration(nsPerOp), time.Duration(timer.Percentile(0.99)), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]gometrics.Timer) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	config := util.GetClientConfig()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "P99", "OpsPerSec", "Skipped",
		"Endpoint", "TimeoutSec",
		"Ops", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, timer := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if timer.Count() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(timer.Mean(), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			time.Duration(timer.Percentile(0.99)).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			config.Endpoint,
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(perfOps),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
