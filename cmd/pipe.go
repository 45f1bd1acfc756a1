package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/config"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/stdio"
)

var (
	pipeCmd = &cobra.Command{
		Use:   "pipe",
		Short: "serve chat requests over stdin/stdout",
		Run:   runPipeCmd,
	}
)

func init() {
	rootCmd.AddCommand(pipeCmd)
}

func runPipeCmd(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := stdio.NewPipe(cfg).Serve(context.Background()); err != nil {
		log.Fatal(err)
	}
}
