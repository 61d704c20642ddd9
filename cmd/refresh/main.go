package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"guest_reviews/internal/adapters/hostaway"
	"guest_reviews/internal/adapters/observability"
	"guest_reviews/internal/adapters/places"
	"guest_reviews/internal/app"
	"guest_reviews/internal/domain"
	"guest_reviews/internal/shared"
	"guest_reviews/internal/storage/filestore"
	mysqlrepo "guest_reviews/internal/storage/mysql"
)

// refresh re-fetches every provider, re-applies stored moderation decisions
// and overwrites the persisted review set. Run it while the API is stopped,
// or restart the API afterwards so it picks the new set up.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("store", cfg.StoreDriver).
		Int("workers", cfg.FetchWorkers).
		Int("place_ids", len(cfg.PlaceIDs)).
		Msg("refresh starting")

	var store domain.StateStore
	if cfg.StoreDriver == "mysql" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("db ping ok")
		store = mysqlrepo.New(db)
	} else {
		st, err := filestore.New(cfg.DataDir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("data dir unusable")
		}
		store = st
	}

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
	if err := pipe.Refresh(ctx); err != nil {
		log.Fatal().Err(err).Msg("refresh failed")
	}
	log.Info().Int("reviews", set.Len()).Msg("refresh completed")
}
