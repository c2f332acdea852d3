package kv

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			if err := rpcStore.Set(key, []byte(value)); err != nil {
				return err
			} else {
				fmt.Println("set successfully")
			}
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key, blocking until another member sets it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if resp, err := rpcStore.Get(key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, resp=%s\n", key, resp)
			}
			return nil
		},
	}
	waitCmd = &cobra.Command{
		Use:   "wait [key...]",
		Short: "Blocks until all given keys have been set",
		Long:  "Blocks until all given keys have been set by any member. With no keys the call returns immediately.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.Wait(args); err != nil {
				return err
			}
			fmt.Println("all keys present")
			return nil
		},
	}
)
