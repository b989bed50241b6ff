package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"groupstat/adapters/api"
	"groupstat/adapters/postgres"
	"groupstat/domain/core"
	domstats "groupstat/domain/stats"
	"groupstat/internal/analysis"
	"groupstat/internal/config"
	"groupstat/internal/errors"
)

// pgStore adapts the postgres repository to the API's ReportStore
type pgStore struct {
	repo *postgres.ReportRepository
}

func (s *pgStore) SaveOmnibus(ctx context.Context, report *domstats.OmnibusReport) error {
	return s.repo.SaveOmnibus(ctx, report)
}

func (s *pgStore) SaveSummary(ctx context.Context, table *domstats.SummaryTable) error {
	return s.repo.SaveSummary(ctx, table)
}

func (s *pgStore) Get(ctx context.Context, id core.AnalysisID) (string, []byte, error) {
	stored, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if stored == nil {
		return "", nil, errors.NotFound("analysis " + string(id))
	}
	return stored.Kind, stored.Payload, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	defaults, err := engineDefaults(cfg)
	if err != nil {
		log.Fatalf("Invalid analysis defaults: %v", err)
	}

	var store api.ReportStore
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		repo := postgres.NewReportRepository(db)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to prepare database schema: %v", err)
		}
		store = &pgStore{repo: repo}
		log.Println("Persisting reports to postgres")
	} else {
		store = api.NewMemoryStore()
		log.Println("DATABASE_URL not set, keeping reports in memory")
	}

	server := api.NewServer(store, defaults)
	addr := ":" + cfg.Server.Port
	log.Printf("Listening on %s", addr)
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func engineDefaults(cfg *config.Config) (analysis.Options, error) {
	adjust, err := domstats.ParseAdjustMethod(cfg.Analysis.DefaultAdjustment)
	if err != nil {
		return analysis.Options{}, err
	}
	missing, err := domstats.ParseMissingPolicy(cfg.Analysis.DefaultMissing)
	if err != nil {
		return analysis.Options{}, err
	}
	return analysis.Options{
		Alpha:         cfg.Analysis.DefaultAlpha,
		Adjustment:    adjust,
		MissingPolicy: missing,
		Seed:          cfg.Analysis.Seed,
	}, nil
}
