package db

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/weatherplus/pkg/dbx"
)

const createUser = `
INSERT INTO users (id, email, password_hash, name, created_at)
VALUES (?, ?, ?, ?, ?)
`

// CreateUserParams はCreateUserの引数。
type CreateUserParams struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}

// CreateUser はユーザーを作成する。メールアドレスが既に存在する場合はErrDuplicateを返す。
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.ExecContext(ctx, createUser,
		arg.ID,
		arg.Email,
		arg.PasswordHash,
		arg.Name,
		arg.CreatedAt,
	)
	if dbx.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, arg.Email)
	}
	return err
}

const getUserByEmail = `
SELECT id, email, password_hash, name, created_at FROM users
WHERE email = ?
`

// GetUserByEmail はメールアドレスでユーザーを取得する。
// 存在しない場合はsql.ErrNoRowsを返す。
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.PasswordHash,
		&i.Name,
		&i.CreatedAt,
	)
	return i, err
}

const getUserByID = `
SELECT id, email, password_hash, name, created_at FROM users
WHERE id = ?
`

// GetUserByID はIDでユーザーを取得する。
// 存在しない場合はsql.ErrNoRowsを返す。
func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.PasswordHash,
		&i.Name,
		&i.CreatedAt,
	)
	return i, err
}

const countUsersByEmail = `
SELECT COUNT(*) FROM users
WHERE email = ?
`

// CountUsersByEmail はメールアドレスに一致するユーザー数を返す。
func (q *Queries) CountUsersByEmail(ctx context.Context, email string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUsersByEmail, email)
	var count int64
	err := row.Scan(&count)
	return count, err
}
