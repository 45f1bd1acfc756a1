package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/agent"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/config"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/logger"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/server"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the bridge HTTP server",
		Run:   runServeCmd,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServeCmd(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// A dead endpoint is worth a warning at startup but not a refusal:
	// the agent may simply not be up yet.
	lg := logger.NewLogger("Serve", uuid.NewString())
	if err := agent.NewClient(cfg).Ping(context.Background()); err != nil {
		lg.Warn(fmt.Sprintf("AG-UI endpoint %s unreachable: %v", cfg.EndpointURL, err))
	}

	server.NewServer(cfg).Run()
}
