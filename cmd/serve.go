package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var (
	port     int
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the HTTP web server.

The web server provides a browser-based dashboard with the same charts as
the TUI, PNG chart endpoints and a JSON API.`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := resolveConfig(cmd)
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			fmt.Printf("Starting Exam Dashboard web server...\n")
			fmt.Printf("Dataset: %s\n", cfg.DataSource)
			fmt.Printf("Port: %d\n\n", cfg.Port)

			if err := StartServer(cfg); err != nil {
				log.Fatalf("Server failed: %v\n", err)
			}
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&port, "port", "p", 3000, "Port to run the server on")
}
