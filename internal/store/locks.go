package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AcquireLock claims the named lock for ttl and returns a fresh token.
//
// The check for a held row and the insert run inside one BEGIN IMMEDIATE
// transaction, so concurrent acquirers for the same name never both succeed.
// A live holder yields a *LockError matching ErrLockHeld; a holder past its TTL
// yields one matching ErrLockStuck. Both carry the existing token and expiry,
// and neither modifies the table.
func (s *Store) AcquireLock(ctx context.Context, name string, ttl time.Duration) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("acquire lock: %w: empty name", ErrInvalidLock)
	}
	ttlSeconds := int64(ttl / time.Second)
	if ttlSeconds < 1 {
		return "", fmt.Errorf("acquire lock %q: %w: ttl %s below one second", name, ErrInvalidLock, ttl)
	}

	token := uuid.NewString()
	err := s.withImmediateTx(ctx, func(conn *sql.Conn) error {
		now := s.nowUnix()

		var (
			heldToken string
			expiresAt int64
		)
		err := conn.QueryRowContext(ctx,
			`SELECT token, expires_at FROM locks
             WHERE name = ? AND is_locked = 1
             ORDER BY expires_at DESC
             LIMIT 1`,
			name,
		).Scan(&heldToken, &expiresAt)
		switch {
		case err == nil:
			lockErr := &LockError{Name: name, Token: heldToken, ExpiresAt: fromUnix(expiresAt), Err: ErrLockHeld}
			if expiresAt <= now {
				lockErr.Err = ErrLockStuck
			}
			return lockErr
		case errors.Is(err, sql.ErrNoRows):
		default:
			return fmt.Errorf("read held lock %q: %w", name, err)
		}

		if _, err := conn.ExecContext(ctx,
			`INSERT INTO locks (name, token, is_locked, locked_at, expires_at) VALUES (?, ?, 1, ?, ?)`,
			name, token, now, now+ttlSeconds,
		); err != nil {
			return fmt.Errorf("insert lock %q: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// ReleaseLock clears the held row matching both name and token. A release that
// matches nothing returns ErrLockNotOwned: the caller no longer owns what it
// thinks it owns.
func (s *Store) ReleaseLock(ctx context.Context, name, token string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE locks SET is_locked = 0 WHERE name = ? AND token = ? AND is_locked = 1`,
		name, token,
	)
	if err != nil {
		return fmt.Errorf("release lock %q: %w", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release lock %q: rows affected: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("release lock %q token %s: %w", name, token, ErrLockNotOwned)
	}
	return nil
}

// HeldLocks returns every lock row still marked held, ordered by name.
func (s *Store) HeldLocks(ctx context.Context) ([]*Lock, error) {
	return s.queryLocks(ctx,
		`SELECT `+lockColumns+` FROM locks WHERE is_locked = 1 ORDER BY name, id`)
}

// StuckLocks returns held locks whose TTL has elapsed, oldest expiry first.
func (s *Store) StuckLocks(ctx context.Context) ([]*Lock, error) {
	return s.queryLocks(ctx,
		`SELECT `+lockColumns+` FROM locks WHERE expires_at <= ? AND is_locked = 1 ORDER BY expires_at, id`,
		s.nowUnix())
}

// LockHistory returns the most recent acquisitions of name, newest first.
func (s *Store) LockHistory(ctx context.Context, name string, limit int) ([]*Lock, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryLocks(ctx,
		`SELECT `+lockColumns+` FROM locks WHERE name = ? ORDER BY id DESC LIMIT ?`,
		name, limit)
}

func (s *Store) queryLocks(ctx context.Context, query string, args ...any) ([]*Lock, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query locks: %w", err)
	}
	defer rows.Close()

	var locks []*Lock
	for rows.Next() {
		lock, err := scanLock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lock: %w", err)
		}
		locks = append(locks, lock)
	}
	return locks, rows.Err()
}
