// ABOUTME: Durable replay-nonce records with atomic insert-if-absent semantics
// ABOUTME: The PRIMARY KEY constraint is the only arbiter of first-seen

package store

import (
	"context"
	"fmt"
	"time"
)

// RecordNonce atomically records a nonce as seen. Returns true only for
// the caller whose insert actually landed; every later call with the
// same nonce returns false. The uniqueness decision is made entirely by
// the primary-key constraint, never by a prior read, so two concurrent
// callers can never both observe first-seen.
func (s *SQLiteStore) RecordNonce(ctx context.Context, nonce string, firstSeen time.Time) (bool, error) {
	query := `
		INSERT INTO seen_nonces (nonce, first_seen_at)
		VALUES (?, ?)
	`

	_, err := s.db.ExecContext(ctx, query, nonce, firstSeen.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if isConstraintViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("inserting nonce: %w", err)
	}

	s.logger.Debug("recorded nonce", "nonce", nonce)
	return true, nil
}

// DeleteNoncesBefore garbage-collects nonces first seen before the
// cutoff. Returns the number of records removed.
func (s *SQLiteStore) DeleteNoncesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM seen_nonces WHERE first_seen_at < ?`

	res, err := s.db.ExecContext(ctx, query, cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("deleting nonces: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted nonces: %w", err)
	}
	if n > 0 {
		s.logger.Debug("pruned nonces", "count", n)
	}
	return n, nil
}
