package cmd

import (
	"log/slog"
	"os"

	"github.com/jcdickinson/apiperms/internal/mcp"
	"github.com/jcdickinson/apiperms/internal/model"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp <methods_f> <perms_f>",
	Short: "Serve the model to MCP clients over stdio",
	Args:  cobra.ExactArgs(2),
	Run:   runMCP,
}

func runMCP(cmd *cobra.Command, args []string) {
	// Fail fast on bad paths; the model itself loads on the first tool call.
	if err := model.CheckInputs(args[0], args[1]); err != nil {
		exitOnLoadError(err)
	}

	opts := loadOptions(args)
	server := mcp.NewServer(func() (*model.Model, error) {
		return model.Load(opts)
	})

	if err := server.Run(); err != nil {
		slog.Error("mcp server failed", "error", err)
		os.Exit(1)
	}
}
