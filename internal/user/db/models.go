package db

import "time"

// User はusersテーブルの1行。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}
