// Package migration はSQLiteデータベースのスキーマを埋め込みSQLで更新する。
//
// 各サービスは migrations/NNNNNN_説明.up.sql を embed.FS に含めて Run に渡す。
// 適用済みのファイルは schema_migrations に名前とSHA-256で記録され、
// 記録後に内容が書き換えられたファイルは適用を拒否する。
package migration

import (
	"cmp"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log"
	"path"
	"slices"
	"strconv"
	"strings"
)

// step は読み込み済みの1つのマイグレーション。
type step struct {
	version  int
	name     string
	sql      string
	checksum string
}

// Run はdir配下のup.sqlをバージョン順に適用する。
// 既に記録されているバージョンは内容が一致すればスキップし、異なればエラーを返す。
func Run(ctx context.Context, db *sql.DB, fsys fs.FS, dir string) error {
	steps, err := load(fsys, dir)
	if err != nil {
		return fmt.Errorf("マイグレーションファイルの読み込みに失敗: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			checksum   TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("マイグレーション管理テーブルの作成に失敗: %w", err)
	}

	recorded, err := checksums(ctx, db)
	if err != nil {
		return fmt.Errorf("適用済みバージョンの取得に失敗: %w", err)
	}

	for _, s := range steps {
		if sum, ok := recorded[s.version]; ok {
			if sum != s.checksum {
				return fmt.Errorf("適用済みのマイグレーション %06d_%s の内容が変更されています", s.version, s.name)
			}
			continue
		}
		if err := s.apply(ctx, db); err != nil {
			return fmt.Errorf("マイグレーション %06d_%s の適用に失敗: %w", s.version, s.name, err)
		}
		log.Printf("[Migration] %06d_%s を適用しました", s.version, s.name)
	}
	return nil
}

// checksums は記録済みのバージョンとチェックサムの対応を返す。
func checksums(ctx context.Context, db *sql.DB) (map[int]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT version, checksum FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	recorded := make(map[int]string)
	for rows.Next() {
		var (
			v   int
			sum string
		)
		if err := rows.Scan(&v, &sum); err != nil {
			return nil, err
		}
		recorded[v] = sum
	}
	return recorded, rows.Err()
}

// load はdir直下の NNNNNN_name.up.sql を読み込みバージョン順に並べる。
// 命名規則に合わないファイルは無視する。
func load(fsys fs.FS, dir string) ([]step, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	byVersion := make(map[int]step)
	for _, entry := range entries {
		base, isUp := strings.CutSuffix(entry.Name(), ".up.sql")
		if entry.IsDir() || !isUp {
			continue
		}
		prefix, name, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}
		if other, dup := byVersion[version]; dup {
			return nil, fmt.Errorf("バージョン %06d が重複しています: %s, %s", version, other.name, name)
		}

		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256(content)
		byVersion[version] = step{
			version:  version,
			name:     name,
			sql:      string(content),
			checksum: hex.EncodeToString(sum[:]),
		}
	}

	steps := make([]step, 0, len(byVersion))
	for _, s := range byVersion {
		steps = append(steps, s)
	}
	slices.SortFunc(steps, func(a, b step) int { return cmp.Compare(a.version, b.version) })
	return steps, nil
}

// apply はSQLの実行と記録を1つのトランザクションで行う。
func (s step) apply(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, s.sql); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name, checksum) VALUES (?, ?, ?)",
		s.version, s.name, s.checksum,
	); err != nil {
		return fmt.Errorf("バージョン記録に失敗: %w", err)
	}
	return tx.Commit()
}
