package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jcdickinson/apiperms/internal/cas"
	"github.com/spf13/cobra"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Remove cached model snapshots",
	Args:  cobra.NoArgs,
	Run:   runClearCache,
}

func runClearCache(cmd *cobra.Command, args []string) {
	if err := cas.Clear(); err != nil {
		slog.Error("failed to clear cache", "error", err)
		os.Exit(1)
	}
	fmt.Println("model cache cleared")
}
