package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"imaged/internal/bootstrap"
)

func main() {
	var opts bootstrap.Options

	rootCmd := &cobra.Command{
		Use:   "imaged",
		Short: "A microservice for image uploads",
		Long: "imaged accepts image submissions over HTTP, as multipart form " +
			"uploads or JSON descriptor batches, and persists them to a local " +
			"upload directory.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap.Run(cmd.Context(), opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.ConfigPath, "config", "config.yaml", "path to the configuration file")
	flags.StringVar(&opts.Host, "host", "", "host address to bind (overrides config)")
	flags.IntVar(&opts.Port, "port", 0, "port to listen on (overrides config)")
	flags.StringVar(&opts.UploadDir, "upload", "", "upload directory path (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "imaged failed: %v\n", err)
		os.Exit(1)
	}
}
