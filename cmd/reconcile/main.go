package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair credit purchases that no webhook, poll or confirmation finished",
	}

	rootCmd.AddCommand(grantsCmd())
	rootCmd.AddCommand(pendingCmd())
	rootCmd.AddCommand(eventsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
