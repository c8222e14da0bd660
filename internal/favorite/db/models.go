package db

import "time"

// Favorite はfavoritesテーブルの1行。
type Favorite struct {
	ID        string
	UserID    string
	CityKey   string
	CityName  string
	CreatedAt time.Time
}
