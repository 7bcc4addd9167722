package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"keyword-bid-analyzer/config"
	"keyword-bid-analyzer/models"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(cfg config.Config) (*PostgresStore, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer schemaCancel()
	if err := store.ensureSchema(schemaCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// SaveRun upserts one row per combined keyword record. Returns the number of
// rows written.
func (s *PostgresStore) SaveRun(ctx context.Context, runID string, records map[string]*models.KeywordRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO keyword_results (
			run_id, keyword,
			pc_volume, pc_clicks, pc_ctr, pc_first_page_slots,
			pc_first_position_bid, pc_min_exposure_bid, pc_rank,
			mobile_volume, mobile_clicks, mobile_ctr, mobile_first_page_slots,
			mobile_first_position_bid, mobile_min_exposure_bid, mobile_rank
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (run_id, keyword) DO UPDATE
		SET
			pc_volume = EXCLUDED.pc_volume,
			pc_clicks = EXCLUDED.pc_clicks,
			pc_ctr = EXCLUDED.pc_ctr,
			pc_first_page_slots = EXCLUDED.pc_first_page_slots,
			pc_first_position_bid = EXCLUDED.pc_first_position_bid,
			pc_min_exposure_bid = EXCLUDED.pc_min_exposure_bid,
			pc_rank = EXCLUDED.pc_rank,
			mobile_volume = EXCLUDED.mobile_volume,
			mobile_clicks = EXCLUDED.mobile_clicks,
			mobile_ctr = EXCLUDED.mobile_ctr,
			mobile_first_page_slots = EXCLUDED.mobile_first_page_slots,
			mobile_first_position_bid = EXCLUDED.mobile_first_position_bid,
			mobile_min_exposure_bid = EXCLUDED.mobile_min_exposure_bid,
			mobile_rank = EXCLUDED.mobile_rank,
			updated_at = NOW()`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert statement: %w", err)
	}
	defer stmt.Close()

	total := 0
	for _, rec := range records {
		if _, err = stmt.ExecContext(
			ctx,
			runID,
			rec.Keyword,
			rec.PC.SearchVolume,
			rec.PC.Clicks,
			rec.PC.CTR,
			rec.PC.FirstPageSlots,
			rec.PC.FirstPositionBid,
			rec.PC.MinExposureBid,
			rec.PC.Rank,
			rec.Mobile.SearchVolume,
			rec.Mobile.Clicks,
			rec.Mobile.CTR,
			rec.Mobile.FirstPageSlots,
			rec.Mobile.FirstPositionBid,
			rec.Mobile.MinExposureBid,
			rec.Mobile.Rank,
		); err != nil {
			return 0, fmt.Errorf("insert keyword %q: %w", rec.Keyword, err)
		}
		total++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return total, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS keyword_results (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			keyword TEXT NOT NULL,
			pc_volume INT NOT NULL DEFAULT -1,
			pc_clicks REAL NOT NULL DEFAULT -1,
			pc_ctr REAL NOT NULL DEFAULT -1,
			pc_first_page_slots INT NOT NULL DEFAULT 0,
			pc_first_position_bid INT NOT NULL DEFAULT -1,
			pc_min_exposure_bid INT NOT NULL DEFAULT -1,
			pc_rank INT NOT NULL DEFAULT -1,
			mobile_volume INT NOT NULL DEFAULT -1,
			mobile_clicks REAL NOT NULL DEFAULT -1,
			mobile_ctr REAL NOT NULL DEFAULT -1,
			mobile_first_page_slots INT NOT NULL DEFAULT 0,
			mobile_first_position_bid INT NOT NULL DEFAULT -1,
			mobile_min_exposure_bid INT NOT NULL DEFAULT -1,
			mobile_rank INT NOT NULL DEFAULT -1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (run_id, keyword)
		);
		CREATE INDEX IF NOT EXISTS idx_keyword_results_run ON keyword_results(run_id);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
