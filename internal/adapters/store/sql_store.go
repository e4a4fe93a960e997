package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// sqlStore holds the parts shared by the SQLite and MySQL stores.
// Only the upsert statement differs between the two dialects.
type sqlStore struct {
	db     *sql.DB
	logger *zap.Logger
	upsert string
}

func (s *sqlStore) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT item_key, item_value FROM kv_store WHERE item_key IN (`+placeholders(len(keys))+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query store: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan store row: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read store rows: %w", err)
	}

	return values, nil
}

// Set writes every item inside one transaction
func (s *sqlStore) Set(ctx context.Context, items map[string]string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for k, v := range items {
			if _, err := tx.ExecContext(ctx, s.upsert, k, v); err != nil {
				return fmt.Errorf("failed to store %s: %w", k, err)
			}
		}
		return nil
	})
}

func (s *sqlStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM kv_store WHERE item_key IN (`+placeholders(len(keys))+`)`,
			args...)
		if err != nil {
			return fmt.Errorf("failed to remove keys: %w", err)
		}

		if n, err := result.RowsAffected(); err != nil {
			s.logger.Warn("Failed to get rows affected during remove", zap.Error(err))
		} else {
			s.logger.Debug("Removed store entries", zap.Int64("removed_count", n))
		}
		return nil
	})
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
