package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <methods_f> <perms_f>",
	Short: "Store the model in a DuckDB database",
	Example: `  apiperms export methods.csv permissions.csv
  apiperms export --db ./android.duckdb methods.csv permissions.csv`,
	Args: cobra.ExactArgs(2),
	Run:  runExport,
}

var exportDB string

func init() {
	exportCmd.Flags().StringVar(&exportDB, "db", "", "database file (default from config export.db_path)")
}

func runExport(cmd *cobra.Command, args []string) {
	m := loadModel(args)

	database, dbPath := openDB(exportDB)
	defer database.Close()

	id, err := database.SaveModel(context.Background(), m)
	if err != nil {
		slog.Error("failed to export model", "error", err)
		database.Close()
		os.Exit(1)
	}

	s := m.Stats()
	fmt.Printf("  source %d: %d packages, %d classes, %d methods, %d permissions -> %s\n",
		id, s.Packages, s.Classes, s.Methods, s.Permissions, dbPath)
}
