package db

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/weatherplus/pkg/dbx"
)

const createFavorite = `
INSERT INTO favorites (id, user_id, city_key, city_name, created_at)
VALUES (?, ?, ?, ?, ?)
`

// CreateFavoriteParams はCreateFavoriteの引数。
type CreateFavoriteParams struct {
	ID        string
	UserID    string
	CityKey   string
	CityName  string
	CreatedAt time.Time
}

// CreateFavorite はお気に入りを作成する。
// 同じユーザーが同じ都市キーを既に登録している場合はErrDuplicateを返す。
func (q *Queries) CreateFavorite(ctx context.Context, arg CreateFavoriteParams) error {
	_, err := q.db.ExecContext(ctx, createFavorite,
		arg.ID,
		arg.UserID,
		arg.CityKey,
		arg.CityName,
		arg.CreatedAt,
	)
	if dbx.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, arg.CityKey)
	}
	return err
}

const listFavoritesByUser = `
SELECT id, user_id, city_key, city_name, created_at FROM favorites
WHERE user_id = ?
ORDER BY created_at, rowid
`

// ListFavoritesByUser はユーザーのお気に入りを登録順に返す。
func (q *Queries) ListFavoritesByUser(ctx context.Context, userID string) ([]Favorite, error) {
	rows, err := q.db.QueryContext(ctx, listFavoritesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Favorite
	for rows.Next() {
		var i Favorite
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.CityKey,
			&i.CityName,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteFavorite = `
DELETE FROM favorites
WHERE user_id = ? AND city_key = ?
RETURNING id, user_id, city_key, city_name, created_at
`

// DeleteFavoriteParams はDeleteFavoriteの引数。
type DeleteFavoriteParams struct {
	UserID  string
	CityKey string
}

// DeleteFavorite はユーザーのお気に入りを1文で削除し、削除した行を返す。
// 該当する行が無い場合はsql.ErrNoRowsを返す。
func (q *Queries) DeleteFavorite(ctx context.Context, arg DeleteFavoriteParams) (Favorite, error) {
	row := q.db.QueryRowContext(ctx, deleteFavorite, arg.UserID, arg.CityKey)
	var i Favorite
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.CityKey,
		&i.CityName,
		&i.CreatedAt,
	)
	return i, err
}

const countFavoritesByUserAndCity = `
SELECT COUNT(*) FROM favorites
WHERE user_id = ? AND city_key = ?
`

// CountFavoritesByUserAndCity はユーザーと都市キーに一致するお気に入り数を返す。
func (q *Queries) CountFavoritesByUserAndCity(ctx context.Context, userID, cityKey string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countFavoritesByUserAndCity, userID, cityKey)
	var count int64
	err := row.Scan(&count)
	return count, err
}
