package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"guest_reviews/internal/adapters/hostaway"
	server "guest_reviews/internal/adapters/http_server"
	"guest_reviews/internal/adapters/observability"
	"guest_reviews/internal/adapters/places"
	redisad "guest_reviews/internal/adapters/redis"
	"guest_reviews/internal/app"
	"guest_reviews/internal/domain"
	"guest_reviews/internal/shared"
	"guest_reviews/internal/storage/filestore"
	mysqlrepo "guest_reviews/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	store := openStore(cfg)

	// optional query cache
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, query cache disabled")
			_ = rc.Close()
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis connection ok")
			cache = rc
			defer rc.Close()
		}
		cancel()
	}

	// providers
	hw := hostaway.New(hostaway.Config{
		BaseURL:   cfg.HostawayBase,
		APIKey:    cfg.HostawayKey,
		AccountID: cfg.HostawayAccountID,
		RPS:       cfg.ProviderRPS,
		Timeout:   cfg.ProviderTimeout,
	})
	gp := places.New(places.Config{
		BaseURL:  cfg.PlacesBase,
		APIKey:   cfg.PlacesKey,
		PlaceIDs: cfg.PlaceIDs,
		RPS:      cfg.ProviderRPS,
		Timeout:  cfg.ProviderTimeout,
	})

	set := app.NewReviewSet()
	pipe := app.NewPipeline(store, set, app.PipelineOptions{
		Workers:         cfg.FetchWorkers,
		ProviderTimeout: cfg.ProviderTimeout,
	}, hw, gp)
	if err := pipe.LoadOrRefresh(ctx); err != nil {
		log.Fatal().Err(err).Msg("initial review load failed")
	}
	log.Info().Int("reviews", set.Len()).Msg("review set ready")

	auth, err := app.NewAuthService(cfg.JWTSecret, cfg.JWTTTL,
		app.Seed{Email: cfg.Admin.Email, Password: cfg.Admin.Password, Name: "Admin User", Role: app.RoleAdmin},
		app.Seed{Email: cfg.Manager.Email, Password: cfg.Manager.Password, Name: "Property Manager", Role: app.RoleManager},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("auth setup failed")
	}
	q := app.NewQueryService(set, app.NewRegistry(app.DefaultCatalog()), cache, cfg.CacheTTL)

	// http
	srv := server.New(cfg.CORSOrigins...)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Pipeline: pipe, Q: q, Auth: auth, Places: gp})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func openStore(cfg shared.Config) domain.StateStore {
	switch cfg.StoreDriver {
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		return mysqlrepo.New(db)
	case "file", "":
		st, err := filestore.New(cfg.DataDir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("data dir unusable")
		}
		log.Info().Str("dir", st.Dir()).Msg("file store ready")
		return st
	default:
		log.Fatal().Str("driver", cfg.StoreDriver).Msg("unknown STORE_DRIVER (want file or mysql)")
		return nil
	}
}
