package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"

	cfgPath string
	debug   bool

	rootCmd = &cobra.Command{
		Use:   "tagwarden",
		Short: "Snapshot tag compliance engine",
		Long: `Tagwarden - Snapshot Tag Compliance Engine

Tagwarden sweeps your EBS snapshot inventory for missing or invalid
metadata tags, bulk-remediates the drift, and compiles the same rules
into a preventive deny policy so the drift cannot recur.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Tagwarden {{.Version}} - Snapshot Tag Compliance Engine
`)
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "tagwarden.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
