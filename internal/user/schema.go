package user

import (
	"context"
	"database/sql"
	"embed"

	"github.com/nao1215/weatherplus/pkg/migration"
)

//go:embed migrations/*.sql
var migrations embed.FS

// initSchema はSQLiteデータベースにマイグレーションを適用する。
func initSchema(ctx context.Context, db *sql.DB) error {
	return migration.Run(ctx, db, migrations, "migrations")
}
