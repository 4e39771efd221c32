package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/archflowhq/archflow/internal/server"
	"github.com/archflowhq/archflow/pkg/cache"
	"github.com/archflowhq/archflow/pkg/pipeline"
	"github.com/archflowhq/archflow/pkg/store"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		redisAddr string
		mongoURI  string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Archflow HTTP API server",
		Long: `Run the Archflow HTTP API server.

The server exposes the layout pipeline over HTTP (POST /v1/layout,
POST /v1/route) and stores diagrams under /v1/diagrams.

By default layouts are cached on the local filesystem and diagrams are
held in memory. Pass --redis for a shared layout cache and --mongo for
durable diagram storage.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, redisAddr, mongoURI, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "redis address for the layout cache (e.g. localhost:6379)")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "mongodb URI for diagram storage (e.g. mongodb://localhost:27017)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable layout caching")

	return cmd
}

// runServe wires the cache and store backends and blocks until ctx is done.
func (c *CLI) runServe(ctx context.Context, addr, redisAddr, mongoURI string, noCache bool) error {
	layoutCache, err := c.serveCache(ctx, redisAddr, noCache)
	if err != nil {
		return err
	}

	diagramStore, err := c.serveStore(ctx, mongoURI)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Addr:   addr,
		Runner: pipeline.NewRunner(layoutCache, nil, c.Logger),
		Store:  diagramStore,
		Logger: c.Logger,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			c.Logger.Error("shutdown failed", "error", err)
		}
	}()

	printInfo("Serving on %s", addr)
	return srv.Start()
}

func (c *CLI) serveCache(ctx context.Context, redisAddr string, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: redisAddr})
		if err != nil {
			return nil, err
		}
		c.Logger.Info("using redis cache", "addr", redisAddr)
		return rc, nil
	}
	return newCache(false)
}

func (c *CLI) serveStore(ctx context.Context, mongoURI string) (store.Store, error) {
	if mongoURI == "" {
		printWarning("No --mongo URI given; diagrams are stored in memory only")
		return store.NewMemoryStore(), nil
	}
	ms, err := store.NewMongoStore(ctx, store.MongoOptions{URI: mongoURI})
	if err != nil {
		return nil, err
	}
	c.Logger.Info("using mongodb store", "uri", mongoURI)
	return ms, nil
}
