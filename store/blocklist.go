package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Terms returns the current block list snapshot. Order is unspecified.
func (s *Store) Terms(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT term FROM block_list`)
	if err != nil {
		return nil, fmt.Errorf("query block list: %w", err)
	}
	defer rows.Close()

	var terms []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("scan block list: %w", err)
		}
		terms = append(terms, term)
	}
	return terms, rows.Err()
}

// AddTerm inserts a banned term. Returns false if it was already present.
func (s *Store) AddTerm(ctx context.Context, term string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO block_list (term) VALUES (?) ON CONFLICT (term) DO NOTHING`, term)
	if err != nil {
		return false, fmt.Errorf("insert block list term: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemoveTerm deletes a banned term. Returns false if it was not present.
func (s *Store) RemoveTerm(ctx context.Context, term string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM block_list WHERE term = ?`, term)
	if err != nil {
		return false, fmt.Errorf("delete block list term: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HasTerm reports whether term is currently blocked.
func (s *Store) HasTerm(ctx context.Context, term string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM block_list WHERE term = ?`, term).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query block list term: %w", err)
	}
	return true, nil
}
