package main

import (
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simfile parser and rewriter over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		server := &http.Server{
			Addr:              serveAddr,
			Handler:           NewRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		log.Printf("Listening on %s", serveAddr)
		return server.ListenAndServe()
	},
}
