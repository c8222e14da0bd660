// Package db はユーザーサービスのSQLクエリを提供する。
package db

import (
	"errors"

	"github.com/nao1215/weatherplus/pkg/dbx"
)

// ErrDuplicate はメールアドレスの一意制約に違反した場合に返される。
var ErrDuplicate = errors.New("メールアドレスが重複しています")

// New はQueriesを生成する。
func New(db dbx.DBTX) *Queries {
	return &Queries{db: db}
}

// Queries はusersテーブルに対するクエリを実行する。
type Queries struct {
	db dbx.DBTX
}
