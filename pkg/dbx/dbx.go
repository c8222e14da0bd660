// Package dbx はSQLiteデータベースの接続とエラー判定の共通処理を提供する。
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MemoryPath はインメモリデータベースを表すパス。
const MemoryPath = ":memory:"

// pragmas は接続ごとに適用するPRAGMA。
const pragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"

// DBTX は *sql.DB と *sql.Tx の両方が満たすクエリ実行インターフェース。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// OpenSQLite はSQLiteデータベースを開く。
// ファイルの場合は親ディレクトリを作成する。書き込みは単一接続に直列化する。
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := path + "?" + pragmas
	if path == MemoryPath {
		dsn = path + "?_pragma=foreign_keys(1)"
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("データベースディレクトリの作成に失敗: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	return db, nil
}

// IsUniqueViolation はerrがUNIQUEまたはPRIMARY KEY制約違反かどうかを返す。
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
