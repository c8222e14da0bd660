// Package db はお気に入りサービスのSQLクエリを提供する。
package db

import (
	"errors"

	"github.com/nao1215/weatherplus/pkg/dbx"
)

// ErrDuplicate は (user_id, city_key) の一意制約に違反した場合に返される。
var ErrDuplicate = errors.New("お気に入りが重複しています")

// New はQueriesを生成する。
func New(db dbx.DBTX) *Queries {
	return &Queries{db: db}
}

// Queries はfavoritesテーブルに対するクエリを実行する。
type Queries struct {
	db dbx.DBTX
}
