package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bokwoon95/googlemaps/cache"
	"github.com/bokwoon95/googlemaps/config"
	"github.com/bokwoon95/googlemaps/googlemaps"
	"github.com/bokwoon95/googlemaps/ledger"
	"github.com/bokwoon95/googlemaps/logging"
	"github.com/bokwoon95/googlemaps/pagemanager"
	"github.com/bokwoon95/googlemaps/renderly"
	"github.com/spf13/cobra"
)

const envPrefix = "GOOGLEMAPS"

// flagKeys maps command line flags to the config keys they override.
var flagKeys = map[string]string{
	"addr":       "server.addr",
	"root":       "server.root",
	"cache":      "cache.backend",
	"log-level":  "logging.level",
	"log-format": "logging.format",
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "googlemaps",
		Short: "Render pages with [GOOGLEMAPS:<tag>] placeholders",
	}
	cmd.PersistentFlags().StringP("config", "c", "", "YAML config file")
	cmd.PersistentFlags().String("log-level", "", "debug, info, warn or error")
	cmd.PersistentFlags().String("log-format", "", "text or json")
	cmd.PersistentFlags().String("theme", "", "directory of templates overriding the built-in ones")
	cmd.AddCommand(
		newServeCmd(),
		newRenderCmd(),
		newConfigCmd(),
	)
	return cmd
}

// load reads the configuration for cmd: built-in defaults, then the config
// file, then GOOGLEMAPS__* environment variables, then flags.
func load(cmd *cobra.Command) (*config.Loader, config.Settings, error) {
	var settings config.Settings
	configPath, _ := cmd.Flags().GetString("config")
	loader := config.NewLoader(envPrefix)
	err := loader.LoadWithDefaults(config.Defaults(), configPath)
	if err != nil {
		return nil, settings, err
	}
	err = loader.LoadFlags(cmd.Flags(), flagKeys)
	if err != nil {
		return nil, settings, err
	}
	err = loader.Unmarshal("", &settings)
	if err != nil {
		return nil, settings, err
	}
	return loader, settings, nil
}

func themeOption(cmd *cobra.Command) []renderly.Option {
	dir, _ := cmd.Flags().GetString("theme")
	if dir == "" {
		return nil
	}
	return []renderly.Option{renderly.Override(os.DirFS(dir))}
}

func openLedgerCache(settings config.Settings) (ledger.Cache, error) {
	switch settings.Cache.Backend {
	case "", "ristretto":
		return cache.NewRistretto(settings.Cache.Ristretto)
	case "sqlite":
		return cache.OpenSQLite(settings.Cache.SQLite)
	}
	return nil, fmt.Errorf("unknown cache backend %q", settings.Cache.Backend)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pages under the root directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, settings, err := load(cmd)
			if err != nil {
				return err
			}
			logger := logging.New(settings.Logging)
			slog.SetDefault(logger)
			ledgers, err := openLedgerCache(settings)
			if err != nil {
				return err
			}
			if closer, ok := ledgers.(io.Closer); ok {
				defer closer.Close()
			}
			opts := []pagemanager.Option{
				pagemanager.WithLogger(logger),
				pagemanager.WithLedgerCache(ledgers),
				pagemanager.WithContentCache(settings.Cache.Ristretto),
			}
			if dir, _ := cmd.Flags().GetString("theme"); dir != "" {
				opts = append(opts, pagemanager.WithTheme(os.DirFS(dir)))
			}
			pm, err := pagemanager.New(loader.Config(), opts...)
			if err != nil {
				return err
			}
			defer pm.Close()
			return serve(cmd.Context(), logger, settings.Server.Addr, pm)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().String("root", "", "directory holding the page files (default pages)")
	cmd.Flags().String("cache", "", "ledger cache backend: ristretto or sqlite")
	return cmd
}

func serve(ctx context.Context, logger *slog.Logger, addr string, handler http.Handler) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Process one page file and print its body and assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, settings, err := load(cmd)
			if err != nil {
				return err
			}
			logger := logging.New(settings.Logging)
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), loader.Config(), logger, args[0], src, themeOption(cmd)...)
		},
	}
	return cmd
}

// render writes the processed body of a page file followed by the tags of
// the assets it needs.
func render(w io.Writer, site *config.Config, logger *slog.Logger, name string, src []byte, opts ...renderly.Option) error {
	header, body, err := config.SplitFrontMatter(src)
	if err != nil {
		return err
	}
	content := string(body)
	var assets renderly.Assets
	if site.PluginEnabled() {
		ry, err := renderly.New(googlemaps.Templates(), opts...)
		if err != nil {
			return err
		}
		plugin, err := googlemaps.New(ry, googlemaps.WithLogger(logger))
		if err != nil {
			return err
		}
		cfg, err := site.ForPage(header)
		if err != nil {
			return err
		}
		pass := plugin.NewPass(name, cfg)
		content, err = pass.Process(content)
		if err != nil {
			return err
		}
		err = pass.Materialize(&assets)
		if err != nil {
			return err
		}
	}
	fmt.Fprintln(w, content)
	for _, s := range []string{
		string(assets.CSS()),
		string(assets.JS(ledger.Top)),
		string(assets.JS(ledger.Bottom)),
	} {
		if s != "" {
			fmt.Fprintln(w, s)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, _, err := load(cmd)
			if err != nil {
				return err
			}
			return loader.DumpYAML(cmd.OutOrStdout())
		},
	}
}
