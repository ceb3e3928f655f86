package cmd

import (
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/jcdickinson/apiperms/internal/config"
	"github.com/jcdickinson/apiperms/internal/model"
	"github.com/jcdickinson/apiperms/internal/perms"
	"github.com/spf13/cobra"
)

var (
	debug      bool
	useCache   bool
	configFile string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "apiperms <methods_f> <perms_f>",
	Short: "Build a model of the Android API surface and its permissions",
	Long: `Read a CSV export of Android API docs (packages, classes, methods) and a CSV
export of Android permissions, and build an in-memory model of both.`,
	Example: `  apiperms methods.csv permissions.csv
  apiperms tree methods.csv permissions.csv
  apiperms perms --level dangerous methods.csv permissions.csv`,
	Args:              cobra.ExactArgs(2),
	PersistentPreRunE: setup,
	Run:               runRoot,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&useCache, "cache", false, "reuse a cached snapshot of unchanged inputs (default from config cache.enabled)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./config.toml or $XDG_CONFIG_HOME/apiperms/config.toml)")

	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(permsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(clearCacheCmd)
}

// setup loads the config and installs the default logger.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadModel builds the model from the two positional arguments, exiting on
// any failure.
func loadModel(args []string) *model.Model {
	m, err := model.Load(loadOptions(args))
	if err != nil {
		exitOnLoadError(err)
	}
	return m
}

func loadOptions(args []string) model.Options {
	return model.Options{
		MethodsPath: args[0],
		PermsPath:   args[1],
		UseCache:    cfg.Cache.Enabled || useCache,
	}
}

// exitOnLoadError reports err the same way for every command and exits 1.
func exitOnLoadError(err error) {
	var missing *model.MissingInputError
	if errors.As(err, &missing) {
		slog.Error(missing.Error(), "path", missing.Path)
		os.Exit(1)
	}
	slog.Error("failed to build model", "error", err)
	os.Exit(1)
}

func runRoot(cmd *cobra.Command, args []string) {
	m := loadModel(args)
	s := m.Stats()
	slog.Info("model built",
		"packages", s.Packages,
		"classes", s.Classes,
		"methods", s.Methods,
		"permissions", s.Permissions,
		"dangerous", s.ByLevel[perms.Dangerous],
	)
}
