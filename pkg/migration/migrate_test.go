package migration

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

// openTestDB はテスト用のインメモリSQLiteを開く。
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRun はマイグレーションの適用を検証する。
func TestRun(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"migrations/000002_add_index.up.sql":      {Data: []byte(`CREATE UNIQUE INDEX idx_items_name ON items(name);`)},
		"migrations/000001_create_items.up.sql":   {Data: []byte(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL);`)},
		"migrations/000001_create_items.down.sql": {Data: []byte(`DROP TABLE items;`)},
		"migrations/README.md":                    {Data: []byte(`ignored`)},
	}

	t.Run("バージョン順に適用され一意インデックスが有効になること", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		if err := Run(context.Background(), db, fsys, "migrations"); err != nil {
			t.Fatalf("Run()でエラーが発生: %v", err)
		}

		if _, err := db.Exec(`INSERT INTO items (name) VALUES ('a')`); err != nil {
			t.Fatalf("1件目の挿入に失敗: %v", err)
		}
		if _, err := db.Exec(`INSERT INTO items (name) VALUES ('a')`); err == nil {
			t.Error("一意インデックスにより2件目の挿入は失敗するべき")
		}
	})

	t.Run("2回実行しても適用済みのマイグレーションはスキップされること", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		for i := range 2 {
			if err := Run(context.Background(), db, fsys, "migrations"); err != nil {
				t.Fatalf("%d回目のRun()でエラーが発生: %v", i+1, err)
			}
		}

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
			t.Fatalf("件数の取得に失敗: %v", err)
		}
		if count != 2 {
			t.Errorf("適用済みバージョン数 = %d, want 2", count)
		}
	})

	t.Run("SQLが不正な場合はエラーとなり記録されないこと", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		broken := fstest.MapFS{
			"m/000001_broken.up.sql": {Data: []byte(`CREATE TABLEE oops;`)},
		}
		if err := Run(context.Background(), db, broken, "m"); err == nil {
			t.Fatal("不正なSQLでエラーが返るべき")
		}

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
			t.Fatalf("件数の取得に失敗: %v", err)
		}
		if count != 0 {
			t.Errorf("適用済みバージョン数 = %d, want 0", count)
		}
	})

	t.Run("同じバージョンのファイルが複数ある場合はエラーになること", func(t *testing.T) {
		t.Parallel()

		dup := fstest.MapFS{
			"m/000001_a.up.sql": {Data: []byte(`SELECT 1;`)},
			"m/000001_b.up.sql": {Data: []byte(`SELECT 1;`)},
		}
		if err := Run(context.Background(), openTestDB(t), dup, "m"); err == nil {
			t.Fatal("重複バージョンでエラーが返るべき")
		}
	})

	t.Run("適用済みのファイルが書き換えられた場合はエラーになること", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		v1 := fstest.MapFS{
			"m/000001_create_items.up.sql": {Data: []byte(`CREATE TABLE items (id INTEGER PRIMARY KEY);`)},
		}
		if err := Run(context.Background(), db, v1, "m"); err != nil {
			t.Fatalf("Run()でエラーが発生: %v", err)
		}

		edited := fstest.MapFS{
			"m/000001_create_items.up.sql": {Data: []byte(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT);`)},
			"m/000002_add_index.up.sql":    {Data: []byte(`CREATE INDEX idx_items_id ON items(id);`)},
		}
		if err := Run(context.Background(), db, edited, "m"); err == nil {
			t.Fatal("書き換えられたマイグレーションでエラーが返るべき")
		}

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
			t.Fatalf("件数の取得に失敗: %v", err)
		}
		if count != 1 {
			t.Errorf("適用済みバージョン数 = %d, want 1", count)
		}
	})

	t.Run("適用したファイル名が記録されること", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		if err := Run(context.Background(), db, fsys, "migrations"); err != nil {
			t.Fatalf("Run()でエラーが発生: %v", err)
		}

		var name string
		if err := db.QueryRow(`SELECT name FROM schema_migrations WHERE version = 2`).Scan(&name); err != nil {
			t.Fatalf("記録の取得に失敗: %v", err)
		}
		if name != "add_index" {
			t.Errorf("name = %q, want %q", name, "add_index")
		}
	})
}
