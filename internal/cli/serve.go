package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/vector76/news_server/internal/articles"
	"github.com/vector76/news_server/internal/config"
	"github.com/vector76/news_server/internal/logger"
	"github.com/vector76/news_server/internal/server"
	"github.com/vector76/news_server/internal/store"
)

// serveFlags holds the raw serve flag values.
type serveFlags struct {
	configFile string
	port       int
	dataDir    string
	backend    string
	sqlitePath string
	adminToken string
	logLevel   string
}

func newServeCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the news HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}

			log := logger.New(os.Stdout, cfg.LogLevel)
			b, err := openBackend(cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()

			srv, err := server.New(server.Config{
				Port:       cfg.Port,
				AdminToken: cfg.AdminToken,
				Version:    version,
				Logger:     log,
			}, b, articles.New(cfg.DataDir))
			if err != nil {
				return err
			}

			addr := srv.ListenAddr()
			log.Info("listening",
				slog.String("addr", addr),
				slog.String("backend", cfg.Backend),
				slog.String("data_dir", cfg.DataDir),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", addr)
			return http.ListenAndServe(addr, srv.Router)
		},
	}

	bindServeFlags(cmd, &f)

	return cmd
}

func bindServeFlags(cmd *cobra.Command, f *serveFlags) {
	def := config.Default()
	cmd.Flags().StringVar(&f.configFile, "config", "", "path to JSON config file")
	cmd.Flags().IntVar(&f.port, "port", def.Port, "port to listen on")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", def.DataDir, "article directory holding documents and comments")
	cmd.Flags().StringVar(&f.backend, "backend", def.Backend, "comment storage backend (fs, sqlite)")
	cmd.Flags().StringVar(&f.sqlitePath, "sqlite-path", "", "database file for the sqlite backend")
	cmd.Flags().StringVar(&f.adminToken, "admin-token", "", "bearer token required by /clean")
	cmd.Flags().StringVar(&f.logLevel, "log-level", def.LogLevel, "log level (debug, info, warn, error)")
}

// resolveConfig applies, in increasing precedence: defaults, the config
// file, NS_* environment variables (with .env fallback), and flags that were
// set explicitly.
func resolveConfig(cmd *cobra.Command, f serveFlags) (config.Config, error) {
	dotenv, err := config.ReadDotenv(config.DotenvFile)
	if err != nil {
		return config.Config{}, err
	}
	getenv := config.Getenv(dotenv)

	configFile := f.configFile
	if configFile == "" {
		configFile = getenv("NS_CONFIG")
	}

	cfg := config.Default()
	if configFile != "" {
		if cfg, err = config.LoadFile(configFile); err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = f.port
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if flags.Changed("backend") {
		cfg.Backend = f.backend
	}
	if flags.Changed("sqlite-path") {
		cfg.SQLitePath = f.sqlitePath
	}
	if flags.Changed("admin-token") {
		cfg.AdminToken = f.adminToken
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openBackend opens the comment store selected by cfg.
func openBackend(cfg config.Config, log *slog.Logger) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return store.OpenSQLite(cfg.SQLitePath, store.WithLogger(log))
	case config.BackendFS:
		return store.OpenFS(cfg.DataDir, store.WithLogger(log))
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
