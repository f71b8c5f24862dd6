package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lintang-b-s/navigatorx-querygraph/docs"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/config"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/kv"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/logger"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/router"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/server/rest"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/server/rest/service"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/tile"
	"golang.org/x/exp/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

var (
	configFile = flag.String("config", "", "yaml config file")
	listenAddr = flag.String("listenaddr", "", "server listen address, overrides the config")
)

//	@title			navigatorx query graph API
//	@version		1.0
//	@description	openstreetmap routing over h3 tiles by car, on foot or by public transport

//	@contact.name	lintang birda saputra

//	@license.name	GNU Affero General Public License v3.0
//	@license.url	https://www.gnu.org/licenses/gpl-3.0.en.html

//	@host		localhost:5000
//	@BasePath	/api
//	@schemes	http

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	logger.Setup(os.Stdout, cfg.Log.Level, cfg.Log.JSON)

	if err := run(cfg); err != nil {
		slog.Error("engine stopped", "error", err)
		os.Exit(1)
	}
}

func openStore(cfg config.Config) (*kv.TileStore, error) {
	if cfg.Storage.Snapshot == "" {
		return kv.OpenTileStore(cfg.Storage.Dir, cfg.Storage.Resolution)
	}

	f, err := os.Open(cfg.Storage.Snapshot)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tiles, err := tile.ReadSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", cfg.Storage.Snapshot, err)
	}

	store, err := kv.OpenInMemoryTileStore(cfg.Storage.Resolution)
	if err != nil {
		return nil, err
	}
	if err := store.SaveTiles(context.Background(), tiles); err != nil {
		store.Close()
		return nil, err
	}
	slog.Info("snapshot loaded", "file", cfg.Storage.Snapshot, "tiles", len(tiles))
	return store, nil
}

func routerConfig(cfg config.RoutingConfig) router.Config {
	return router.Config{
		UTurnPenalty:       cfg.UTurnPenalty,
		OffroadSpeedKMH:    cfg.OffroadSpeedKMH,
		PedestrianSpeedKMH: cfg.PedestrianSpeedKMH,
		TransitMaxSpeedKMH: cfg.TransitMaxSpeedKMH,
		SnapRadius:         cfg.SnapRadius,
		GuidesRadius:       cfg.GuidesRadius,
		Timeout:            cfg.Timeout,
		CheckInterval:      cfg.CheckInterval,
	}
}

func run(cfg config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	registry, err := tile.NewRegistry(store, tile.RegistryConfig{
		MaxCost:     cfg.Cache.MaxCost,
		NumCounters: cfg.Cache.NumCounters,
	}, reg)
	if err != nil {
		return err
	}
	defer registry.Close()

	locator := kv.NewH3Locator(store, cfg.Storage.SearchRadiusKm)
	rt := router.NewRouter(registry, locator, routerConfig(cfg.Routing), reg)
	navigatorSvc := service.NewNavigationService(rt)

	m := rest.NewMetrics(reg)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(rest.PromeHttpMiddleware(m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Mount("/debug", middleware.Profiler())
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	rest.NavigatorRouter(r, navigatorSvc)

	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: r}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.Server.ListenAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
