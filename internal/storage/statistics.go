package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/punchdash/internal/common"
	"github.com/Veraticus/punchdash/internal/model"
)

// SaveStatisticsSnapshot replaces the cached statistics.
func (s *SQLiteStorage) SaveStatisticsSnapshot(ctx context.Context, stats *model.Statistics) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateStatistics(stats); err != nil {
		return err
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode statistics: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO statistics_snapshot (id, payload, fetched_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at
	`, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save statistics snapshot: %w", err)
	}
	return nil
}

// GetStatisticsSnapshot returns the cached statistics and when they were
// fetched. It returns common.ErrNotFound when nothing is cached.
func (s *SQLiteStorage) GetStatisticsSnapshot(ctx context.Context) (*model.Statistics, time.Time, error) {
	if err := validateContext(ctx); err != nil {
		return nil, time.Time{}, err
	}

	var payload string
	var fetchedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM statistics_snapshot WHERE id = 1`,
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, common.ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read statistics snapshot: %w", err)
	}

	var stats model.Statistics
	if err := json.Unmarshal([]byte(payload), &stats); err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %w", common.ErrDatabaseCorrupted, err)
	}
	return &stats, fetchedAt, nil
}

// ClearStatisticsSnapshot drops the cached statistics.
func (s *SQLiteStorage) ClearStatisticsSnapshot(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM statistics_snapshot`); err != nil {
		return fmt.Errorf("failed to clear statistics snapshot: %w", err)
	}
	return nil
}

// SaveVerdict appends a verdict to the history.
func (s *SQLiteStorage) SaveVerdict(ctx context.Context, v model.Verdict) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateVerdict(v); err != nil {
		return err
	}

	var truthLabel, truthHand sql.NullInt64
	if v.Correction.Label != nil {
		truthLabel = sql.NullInt64{Int64: int64(*v.Correction.Label), Valid: true}
	}
	if v.Correction.Hand != nil {
		truthHand = sql.NullInt64{Int64: int64(*v.Correction.Hand), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verdicts (predicted_label, predicted_hand, truth_label, truth_hand, rated_at)
		VALUES (?, ?, ?, ?, ?)
	`, int(v.Label), int(v.Hand), truthLabel, truthHand, v.RatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save verdict: %w", err)
	}
	return nil
}

// GetVerdicts returns the most recent verdicts, newest first. A limit of zero
// or less returns all of them.
func (s *SQLiteStorage) GetVerdicts(ctx context.Context, limit int) ([]model.Verdict, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT predicted_label, predicted_hand, truth_label, truth_hand, rated_at
		FROM verdicts
		ORDER BY rated_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var verdicts []model.Verdict
	for rows.Next() {
		var predLabel, predHand int
		var truthLabel, truthHand sql.NullInt64
		var v model.Verdict
		if err := rows.Scan(&predLabel, &predHand, &truthLabel, &truthHand, &v.RatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		v.Label = model.Label(predLabel)
		v.Hand = model.Hand(predHand)
		if truthLabel.Valid {
			v.Correction = v.Correction.WithLabel(model.Label(truthLabel.Int64))
		}
		if truthHand.Valid {
			v.Correction = v.Correction.WithHand(model.Hand(truthHand.Int64))
		}
		verdicts = append(verdicts, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate verdicts: %w", err)
	}
	return verdicts, nil
}
