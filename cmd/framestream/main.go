package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var version = "dev"

// The display window must stay on the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "framestream",
		Short: "Receive and display a length-prefixed video stream",
		Long: `framestream connects to a streaming source, reassembles frames from a
length-prefixed byte stream and shows them in a window. Alert messages play
a sound instead.`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "framestream.yaml", "Path to the YAML config file")

	rootCmd.AddCommand(newViewCommand())
	rootCmd.AddCommand(newServeCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
