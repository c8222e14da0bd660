package session

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/nao1215/weatherplus/pkg/dbx"
	"github.com/nao1215/weatherplus/pkg/migration"
)

//go:embed migrations/*.sql
var migrations embed.FS

// tokenKey はmetadataテーブルでトークンを保存するキー。
const tokenKey = "auth_token"

// TokenStore はトークンをローカルに永続化する。
type TokenStore interface {
	// Get は保存済みのトークンを返す。無い場合は空文字列。
	Get(ctx context.Context) (string, error)
	// Set はトークンを保存する。
	Set(ctx context.Context, token string) error
	// Delete は保存済みのトークンを削除する。
	Delete(ctx context.Context) error
}

// SQLiteTokenStore はSQLiteのmetadataテーブルにトークンを保存するTokenStore。
type SQLiteTokenStore struct {
	db dbx.DBTX
}

// NewSQLiteTokenStore はマイグレーションを適用してSQLiteTokenStoreを生成する。
func NewSQLiteTokenStore(ctx context.Context, db *sql.DB) (*SQLiteTokenStore, error) {
	if err := migration.Run(ctx, db, migrations, "migrations"); err != nil {
		return nil, fmt.Errorf("トークンストアの初期化に失敗: %w", err)
	}
	return &SQLiteTokenStore{db: db}, nil
}

// Get は保存済みのトークンを返す。無い場合は空文字列。
func (s *SQLiteTokenStore) Get(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, tokenKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("トークンの読み込みに失敗: %w", err)
	}
	return value, nil
}

// Set はトークンを保存する。既存の値は上書きする。
func (s *SQLiteTokenStore) Set(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, tokenKey, token)
	if err != nil {
		return fmt.Errorf("トークンの保存に失敗: %w", err)
	}
	return nil
}

// Delete は保存済みのトークンを削除する。
func (s *SQLiteTokenStore) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, tokenKey); err != nil {
		return fmt.Errorf("トークンの削除に失敗: %w", err)
	}
	return nil
}
