package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"VNSniper/internal/domain/models"
	domrepo "VNSniper/internal/domain/repository"
	pkgch "VNSniper/pkg/clickhouse"
	applogger "VNSniper/pkg/logger"
)

// CHRunStore implements RunStore backed by ClickHouse. Full run
// payloads are stored as JSON alongside the queryable columns.
type CHRunStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHRunStore(ch *pkgch.Client) *CHRunStore {
	return &CHRunStore{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHRunStore) SetLogger(l *applogger.Logger) { s.l = l }

var _ domrepo.RunStore = (*CHRunStore)(nil)

var schema = []string{
	`CREATE DATABASE IF NOT EXISTS vnsniper`,
	`CREATE TABLE IF NOT EXISTS vnsniper.analysis_runs (
        run_ts        DateTime,
        regime        LowCardinality(String),
        regime_score  Float64,
        alloc_min     Float64,
        alloc_max     Float64,
        top_n         UInt32,
        analyzed      UInt32,
        skipped       UInt32,
        regime_json   String,
        payload       String
    ) ENGINE = MergeTree()
    ORDER BY run_ts
    TTL run_ts + INTERVAL 180 DAY`,
}

func (s *CHRunStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, schema)
}

func (s *CHRunStore) StoreRun(ctx context.Context, res *models.AnalysisResult) error {
	start := time.Now()
	if res == nil || res.Regime == nil {
		return fmt.Errorf("store run: incomplete result")
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	regimeJSON, err := json.Marshal(res.Regime)
	if err != nil {
		return fmt.Errorf("marshal regime: %w", err)
	}

	const q = `
        INSERT INTO vnsniper.analysis_runs
            (run_ts, regime, regime_score, alloc_min, alloc_max,
             top_n, analyzed, skipped, regime_json, payload)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = s.db.ExecContext(ctx, q,
		res.GeneratedAt,
		string(res.Regime.State),
		res.Regime.Score,
		res.Regime.Allocation.MinPct,
		res.Regime.Allocation.MaxPct,
		uint32(res.TopN),
		uint32(res.Analyzed),
		uint32(res.Skipped),
		string(regimeJSON),
		string(payload),
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store_run error", applogger.Error(err))
		}
		return fmt.Errorf("store run: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse store_run ok",
			applogger.String("regime", string(res.Regime.State)),
			applogger.Int("analyzed", res.Analyzed),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHRunStore) LatestRun(ctx context.Context) (*models.AnalysisResult, error) {
	const q = `
        SELECT payload
        FROM vnsniper.analysis_runs
        ORDER BY run_ts DESC
        LIMIT 1
    `
	var payload string
	if err := s.db.QueryRowContext(ctx, q).Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no stored runs")
		}
		return nil, fmt.Errorf("latest run: %w", err)
	}

	var res models.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return &res, nil
}

func (s *CHRunStore) RunHistory(ctx context.Context, from, to time.Time, limit int) ([]models.RegimeAssessment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
        SELECT regime_json
        FROM vnsniper.analysis_runs
        WHERE run_ts >= ? AND run_ts <= ?
        ORDER BY run_ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("run history: %w", err)
	}
	defer rows.Close()

	out := make([]models.RegimeAssessment, 0, limit)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var r models.RegimeAssessment
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			if s.l != nil {
				s.l.Warn("skipping undecodable regime row", applogger.Error(err))
			}
			continue
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHRunStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHRunStore) Close() error {
	return s.ch.Close()
}
