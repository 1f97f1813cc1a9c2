package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgate/internal/config"
	"github.com/abhisek/quizgate/internal/logging"
	"github.com/abhisek/quizgate/internal/store"
)

// cfg is loaded once per invocation before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "quizgate",
	Short: "Adaptive level-gated quizzes on any topic",
	Long: "QuizGate quizzes you on a topic of your choice, scores free-text answers\n" +
		"with an LLM and only lets you move up a level once every subtopic is solid.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd, "")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QUIZGATE_DB)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides QUIZGATE_CONFIG)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.Store.DBPath != "" {
		return cfg.Store.DBPath, store.EnsureDir(cfg.Store.DBPath)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// newLogger builds the command logger. The terminal UI owns the terminal,
// so interactive commands log to a file next to the database.
func newLogger(cmd *cobra.Command, interactive bool) (*slog.Logger, func(), error) {
	if !interactive {
		return logging.New(cfg.Log, os.Stderr), func() {}, nil
	}
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(filepath.Dir(dbPath), "quizgate.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.New(cfg.Log, f), func() { f.Close() }, nil
}
