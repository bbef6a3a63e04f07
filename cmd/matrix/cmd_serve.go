package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/interview-matrix/internal/server"
)

var serveAddr string

// serveCmd runs the gRPC server in the foreground
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MatrixService gRPC server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.GRPCAddr = serveAddr
		}
		a, err := buildApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		return server.Serve(cmd.Context(), cfg.Server.GRPCAddr, a.Service, logger)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from GRPC_ADDR)")
}
