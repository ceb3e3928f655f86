package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/jcdickinson/apiperms/internal/apidoc"
	"github.com/jcdickinson/apiperms/internal/db"
	"github.com/jcdickinson/apiperms/internal/perms"
	"github.com/jcdickinson/apiperms/internal/rpc"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect models stored with export",
	Example: `  apiperms sources list
  apiperms sources show 1
  apiperms sources tree 1
  apiperms sources delete 1`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exported sources",
	Args:  cobra.NoArgs,
	Run:   runSourcesList,
}

var sourcesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show counts for an exported source",
	Args:  cobra.ExactArgs(1),
	Run:   runSourcesShow,
}

var sourcesTreeCmd = &cobra.Command{
	Use:   "tree <id>",
	Short: "Print the API tree of an exported source",
	Args:  cobra.ExactArgs(1),
	Run:   runSourcesTree,
}

var sourcesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an exported source and everything imported with it",
	Args:  cobra.ExactArgs(1),
	Run:   runSourcesDelete,
}

var (
	sourcesDB   string
	sourcesJSON bool
)

func init() {
	sourcesCmd.PersistentFlags().StringVar(&sourcesDB, "db", "", "database file (default from config export.db_path)")
	sourcesShowCmd.Flags().BoolVar(&sourcesJSON, "json", false, "output as JSON")

	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesShowCmd)
	sourcesCmd.AddCommand(sourcesTreeCmd)
	sourcesCmd.AddCommand(sourcesDeleteCmd)
}

// openDB opens the database named by flag, falling back to the configured
// path, and returns it with the path used.
func openDB(flag string) (*db.DB, string) {
	dbPath := flag
	if dbPath == "" {
		dbPath = cfg.Export.DBPath
	}
	database, err := db.New(dbPath)
	if err != nil {
		slog.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	return database, dbPath
}

func parseSourceID(arg string) int {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		slog.Error("invalid source id", "id", arg)
		os.Exit(1)
	}
	return id
}

func runSourcesList(cmd *cobra.Command, args []string) {
	database, _ := openDB(sourcesDB)
	defer database.Close()

	sources, err := database.ListSources(context.Background())
	if err != nil {
		slog.Error("failed to list sources", "error", err)
		database.Close()
		os.Exit(1)
	}
	if len(sources) == 0 {
		fmt.Println("no exported sources")
		return
	}
	for _, s := range sources {
		fmt.Printf("  %-4d %s  %s  %s\n", s.ID, s.ImportedAt.Format("2006-01-02 15:04"), s.MethodsPath, s.PermsPath)
	}
}

func runSourcesShow(cmd *cobra.Command, args []string) {
	id := parseSourceID(args[0])
	database, _ := openDB(sourcesDB)
	defer database.Close()

	ctx := context.Background()
	m, err := database.LoadModel(ctx, id)
	if err != nil {
		slog.Error("failed to load source", "id", id, "error", err)
		database.Close()
		os.Exit(1)
	}
	byLevel, err := database.PermissionsByLevel(ctx, id)
	if err != nil {
		slog.Error("failed to count permissions", "id", id, "error", err)
		database.Close()
		os.Exit(1)
	}

	resp := rpc.NewStatsResponse(m)
	for _, l := range perms.Levels {
		resp.ByLevel[string(l)] = byLevel[l]
	}

	if sourcesJSON {
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return
	}

	fmt.Printf("  source %d: %s, %s\n", id, m.Source.MethodsPath, m.Source.PermsPath)
	fmt.Printf("  packages:     %d\n", resp.Packages)
	fmt.Printf("  classes:      %d\n", resp.Classes)
	fmt.Printf("  methods:      %d\n", resp.Methods)
	fmt.Printf("  permissions:  %d (%d groups)\n", resp.Permissions, resp.Groups)
	for _, l := range perms.Levels {
		fmt.Printf("    %-10s  %d\n", l, resp.ByLevel[string(l)])
	}
}

func runSourcesTree(cmd *cobra.Command, args []string) {
	id := parseSourceID(args[0])
	database, _ := openDB(sourcesDB)
	defer database.Close()

	m, err := database.LoadModel(context.Background(), id)
	if err != nil {
		slog.Error("failed to load source", "id", id, "error", err)
		database.Close()
		os.Exit(1)
	}
	fmt.Print(apidoc.Render(m.Packages))
}

func runSourcesDelete(cmd *cobra.Command, args []string) {
	id := parseSourceID(args[0])
	database, _ := openDB(sourcesDB)
	defer database.Close()

	if err := database.DeleteSource(context.Background(), id); err != nil {
		slog.Error("failed to delete source", "id", id, "error", err)
		database.Close()
		os.Exit(1)
	}
	fmt.Printf("  source %d deleted\n", id)
}
