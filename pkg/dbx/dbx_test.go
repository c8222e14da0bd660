package dbx

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestOpenSQLite(t *testing.T) {
	t.Parallel()

	t.Run("存在しないディレクトリにファイルを作成できる", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
		db, err := OpenSQLite(path)
		if err != nil {
			t.Fatalf("OpenSQLite() error = %v", err)
		}
		t.Cleanup(func() { db.Close() })

		if _, err := db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY)`); err != nil {
			t.Fatalf("テーブル作成に失敗: %v", err)
		}
	})

	t.Run("インメモリデータベースを開ける", func(t *testing.T) {
		t.Parallel()
		db, err := OpenSQLite(MemoryPath)
		if err != nil {
			t.Fatalf("OpenSQLite() error = %v", err)
		}
		t.Cleanup(func() { db.Close() })

		var n int
		if err := db.QueryRow(`SELECT 1`).Scan(&n); err != nil || n != 1 {
			t.Errorf("SELECT 1 = %d, %v", n, err)
		}
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	db, err := OpenSQLite(MemoryPath)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`CREATE TABLE t (id TEXT PRIMARY KEY, email TEXT NOT NULL UNIQUE)`); err != nil {
		t.Fatalf("テーブル作成に失敗: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO t (id, email) VALUES ('1', 'a@example.com')`); err != nil {
		t.Fatalf("挿入に失敗: %v", err)
	}

	t.Run("UNIQUE制約違反を検出する", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO t (id, email) VALUES ('2', 'a@example.com')`)
		if !IsUniqueViolation(err) {
			t.Errorf("IsUniqueViolation(%v) = false, want true", err)
		}
	})

	t.Run("主キー制約違反を検出する", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO t (id, email) VALUES ('1', 'b@example.com')`)
		if !IsUniqueViolation(err) {
			t.Errorf("IsUniqueViolation(%v) = false, want true", err)
		}
	})

	t.Run("NOT NULL制約違反は対象外", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO t (id, email) VALUES ('3', NULL)`)
		if err == nil {
			t.Fatal("エラーが返されるべき")
		}
		if IsUniqueViolation(err) {
			t.Errorf("IsUniqueViolation(%v) = true, want false", err)
		}
	})

	t.Run("nilや無関係なエラーは対象外", func(t *testing.T) {
		if IsUniqueViolation(nil) {
			t.Error("IsUniqueViolation(nil) = true")
		}
		if IsUniqueViolation(errors.New("disk I/O error")) {
			t.Error("無関係なエラーを制約違反と判定した")
		}
	})
}
