// Package sqlite provides a SQLite-backed progression save backend.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// opTimeout bounds every statement issued through the save backend methods.
const opTimeout = 5 * time.Second

//go:embed schema.sql
var schemaSQL string

// Store persists per-player save props in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite save store, creating its directory and schema when missing.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveObjectProp upserts one prop for a player.
func (s *Store) SaveObjectProp(object, prop string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return s.PutProp(ctx, object, prop, data)
}

// LoadObjectProp reads one prop; a missing row wraps fs.ErrNotExist.
func (s *Store) LoadObjectProp(object, prop string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	data, _, err := s.GetProp(ctx, object, prop)
	return data, err
}

// SaveObjectProps upserts several props for a player in one transaction.
func (s *Store) SaveObjectProps(object string, props map[string][]byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return s.PutProps(ctx, object, props)
}

// PutProp upserts one prop for a player.
func (s *Store) PutProp(ctx context.Context, playerID, prop string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	playerID = strings.TrimSpace(playerID)
	prop = strings.TrimSpace(prop)
	if playerID == "" || prop == "" {
		return fmt.Errorf("player id and prop are required")
	}
	return upsertProp(ctx, s.sqlDB, playerID, prop, data, toMillis(s.now()))
}

// PutProps upserts several props for a player atomically.
func (s *Store) PutProps(ctx context.Context, playerID string, props map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return fmt.Errorf("player id is required")
	}
	for prop := range props {
		if strings.TrimSpace(prop) == "" {
			return fmt.Errorf("prop is required")
		}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	updatedAt := toMillis(s.now())
	for prop, data := range props {
		if err := upsertProp(ctx, tx, playerID, strings.TrimSpace(prop), data, updatedAt); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit props for %s: %w", playerID, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertProp(ctx context.Context, db execer, playerID, prop string, data []byte, updatedAt int64) error {
	if data == nil {
		data = []byte{}
	}
	_, err := db.ExecContext(
		ctx,
		`INSERT INTO save_props (player_id, prop, data, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(player_id, prop) DO UPDATE SET
		   data = excluded.data,
		   updated_at = excluded.updated_at`,
		playerID,
		prop,
		data,
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("put prop %s/%s: %w", playerID, prop, err)
	}
	return nil
}

// GetProp reads one prop and its last update time.
func (s *Store) GetProp(ctx context.Context, playerID, prop string) ([]byte, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, time.Time{}, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, time.Time{}, fmt.Errorf("storage is not configured")
	}

	var (
		data      []byte
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT data, updated_at FROM save_props WHERE player_id = ? AND prop = ?`,
		strings.TrimSpace(playerID),
		strings.TrimSpace(prop),
	).Scan(&data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, fmt.Errorf("prop %s/%s: %w", playerID, prop, fs.ErrNotExist)
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("get prop %s/%s: %w", playerID, prop, err)
	}
	return data, fromMillis(updatedAt), nil
}

// ListPlayers returns every player id with at least one stored prop.
func (s *Store) ListPlayers(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT DISTINCT player_id FROM save_props ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan player id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return ids, nil
}
