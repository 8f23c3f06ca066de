package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/tournee-registry/pkg/api"
	"github.com/hazyhaar/tournee-registry/pkg/importer"
	"github.com/hazyhaar/tournee-registry/pkg/lookup"
	"github.com/hazyhaar/tournee-registry/pkg/match"
	"github.com/hazyhaar/tournee-registry/pkg/observe"
	"github.com/hazyhaar/tournee-registry/pkg/route"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

const version = "0.3.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "import":
		cmdImport(os.Args[2:])
	case "export":
		cmdExport(os.Args[2:])
	case "resolve":
		cmdResolve(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: tournee <command>

Commands:
  serve     Start the HTTP and MCP server
  import    Load the route spreadsheet into the database
  export    Write the stored routes as CSV
  resolve   Resolve words against the address vocabulary
`)
}

// app holds the services shared by the subcommands.
type app struct {
	cfg      config
	logger   *slog.Logger
	store    *route.Store
	importer *importer.Importer
	registry *lookup.Registry
	metrics  *observe.Metrics
}

func openApp(cfg config, logger *slog.Logger) (*app, error) {
	store, err := route.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		importer: importer.New(store, cfg.Import, logger),
		registry: lookup.NewRegistry(store, match.NewResolver(cfg.Matching)),
	}, nil
}

func (a *app) reload(ctx context.Context) error {
	if err := a.registry.Reload(ctx); err != nil {
		return err
	}
	st := a.registry.Stats()
	a.metrics.RecordSnapshot(ctx, st.Records, st.Tokens)
	a.logger.Info("routes loaded", "records", st.Records, "tokens", st.Tokens)
	return nil
}

// reimport loads the spreadsheet at path and refreshes the registry. A
// failed import leaves the previous routes in service.
func (a *app) reimport(ctx context.Context, path string) {
	_, err := a.importer.ImportFile(ctx, path)
	a.metrics.RecordImport(ctx, err)
	if err != nil {
		a.logger.Error("import failed", "path", path, "error", err)
		return
	}
	if err := a.reload(ctx); err != nil {
		a.logger.Error("reload failed", "error", err)
	}
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	cfg, logger := mustConfig(*cfgPath)

	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config, logger *slog.Logger) error {
	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.store.Close()

	root := http.NewServeMux()
	if cfg.Metrics {
		prov, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		defer prov.Shutdown(context.Background())
		if a.metrics, err = observe.NewMetrics(prov.MeterProvider); err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		root.Handle("GET /metrics", prov.Handler())
	}

	// Seed an empty database from the watched spreadsheet.
	if n, err := a.store.Count(ctx); err == nil && n == 0 && cfg.WatchFile != "" {
		a.reimport(ctx, cfg.WatchFile)
	}
	if err := a.reload(ctx); err != nil {
		return err
	}

	deps := api.Deps{
		Store:    a.store,
		Registry: a.registry,
		Importer: a.importer,
		Metrics:  a.metrics,
		Logger:   logger,
	}
	mcpSrv := server.NewMCPServer("tournee-registry", version, server.WithToolCapabilities(false))
	api.RegisterMCPTools(mcpSrv, deps)
	root.Handle("/mcp", server.NewStreamableHTTPServer(mcpSrv))
	root.Handle("/", api.NewRouter(deps))

	tlsCfg, err := tlsConfig(cfg.TLS)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           observe.Middleware(a.metrics, logger)(root),
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("tournee listening", "addr", cfg.Addr, "tls", tlsCfg != nil)
		var err error
		if tlsCfg != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// SIGHUP: hot reload routes, re-reading the watched file when set.
	g.Go(func() error {
		sighup := make(chan os.Signal, 1)
		signal.Notify(sighup, syscall.SIGHUP)
		defer signal.Stop(sighup)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-sighup:
				logger.Info("SIGHUP received, reloading routes")
				if cfg.WatchFile != "" {
					a.reimport(gctx, cfg.WatchFile)
				} else if err := a.reload(gctx); err != nil {
					logger.Error("reload failed", "error", err)
				}
			}
		}
	})

	if cfg.WatchFile != "" {
		w, err := importer.NewWatcher(cfg.WatchFile, importer.DefaultDebounce, logger, a.reimport)
		if err != nil {
			return fmt.Errorf("watch %s: %w", cfg.WatchFile, err)
		}
		w.Start(gctx)
		g.Go(func() error {
			<-gctx.Done()
			return w.Stop()
		})
	}

	return g.Wait()
}
