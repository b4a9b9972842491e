package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// GetCfg returns the policy document for a content and season. When the key has
// several rows the newest wins. ErrCfgNotFound is returned when none exist.
func (s *Store) GetCfg(ctx context.Context, contentID int64, season int) (*Cfg, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+cfgColumns+` FROM cfg
         WHERE content_id = ? AND season = ?
         ORDER BY id DESC
         LIMIT 1`,
		contentID, season,
	)
	cfg, err := scanCfg(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cfg for content %d season %d: %w", contentID, season, ErrCfgNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get cfg for content %d season %d: %w", contentID, season, err)
	}
	return cfg, nil
}

// InsertCfg appends a policy document. The document must decode as a Policy.
func (s *Store) InsertCfg(ctx context.Context, season int, contentID int64, document json.RawMessage) (int64, error) {
	if contentID <= 0 {
		return 0, fmt.Errorf("%w: content id must be positive, got %d", ErrInvalidPolicy, contentID)
	}
	if season <= 0 {
		return 0, fmt.Errorf("%w: season must be positive, got %d", ErrInvalidPolicy, season)
	}
	if _, err := ParsePolicy(document); err != nil {
		return 0, err
	}

	compact, err := compactJSON(document)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO cfg (season, content_id, document) VALUES (?, ?, ?)`,
		season, contentID, compact,
	)
	if err != nil {
		return 0, fmt.Errorf("insert cfg: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("cfg id: %w", err)
	}
	return id, nil
}

// ListCfgs returns every stored policy document ordered by content and season.
func (s *Store) ListCfgs(ctx context.Context) ([]*Cfg, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cfgColumns+` FROM cfg ORDER BY content_id, season, id`)
	if err != nil {
		return nil, fmt.Errorf("list cfgs: %w", err)
	}
	defer rows.Close()

	var cfgs []*Cfg
	for rows.Next() {
		cfg, err := scanCfg(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cfg: %w", err)
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, rows.Err()
}
