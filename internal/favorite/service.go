package favorite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	favoritedb "github.com/nao1215/weatherplus/internal/favorite/db"
	"github.com/nao1215/weatherplus/pkg/apperr"
)

// Favorite はお気に入り都市のJSON表現。
type Favorite struct {
	// ID はお気に入りの一意識別子。
	ID string `json:"id"`
	// UserID は所有者のユーザーID。
	UserID string `json:"id_user"`
	// CityKey は正規化済みの都市キー。
	CityKey string `json:"id_ville"`
	// CityName は都市の表示名。
	CityName string `json:"nom_ville"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"created_at"`
}

// CanonicalCityKey は都市キーを正規化する。前後の空白を除去し小文字にする。
// 重複判定と削除はこの正規化済みキーで行う。
func CanonicalCityKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Service はお気に入りのユースケースを実装する。すべての操作は呼び出し元に限定される。
type Service struct {
	queries *favoritedb.Queries
	now     func() time.Time
}

// NewService はServiceを生成する。
func NewService(queries *favoritedb.Queries) *Service {
	return &Service{queries: queries, now: time.Now}
}

// List は呼び出し元のお気に入りを返す。
func (s *Service) List(ctx context.Context, caller string) ([]Favorite, error) {
	rows, err := s.queries.ListFavoritesByUser(ctx, caller)
	if err != nil {
		return nil, apperr.Internal("お気に入りの取得に失敗しました", err)
	}

	favorites := make([]Favorite, 0, len(rows))
	for _, row := range rows {
		favorites = append(favorites, toFavorite(row))
	}
	return favorites, nil
}

// Add は呼び出し元のお気に入りを追加する。
// 同じ都市キーが既に登録されている場合はConflictError。
func (s *Service) Add(ctx context.Context, caller, cityKey, cityName string) (*Favorite, error) {
	cityKey = CanonicalCityKey(cityKey)
	cityName = strings.TrimSpace(cityName)
	if cityKey == "" {
		return nil, apperr.Validation("id_villeは必須です")
	}
	if cityName == "" {
		return nil, apperr.Validation("nom_villeは必須です")
	}

	row := favoritedb.CreateFavoriteParams{
		ID:        uuid.New().String(),
		UserID:    caller,
		CityKey:   cityKey,
		CityName:  cityName,
		CreatedAt: s.now().UTC(),
	}
	if err := s.queries.CreateFavorite(ctx, row); err != nil {
		if errors.Is(err, favoritedb.ErrDuplicate) {
			return nil, apperr.Conflict("この都市は既にお気に入りに登録されています")
		}
		return nil, apperr.Internal("お気に入りの追加に失敗しました", err)
	}

	return &Favorite{
		ID:        row.ID,
		UserID:    row.UserID,
		CityKey:   row.CityKey,
		CityName:  row.CityName,
		CreatedAt: row.CreatedAt,
	}, nil
}

// Remove は呼び出し元のお気に入りを削除し、削除したお気に入りを返す。
// 他のユーザーのお気に入りは対象にならない。見つからない場合はNotFoundError。
func (s *Service) Remove(ctx context.Context, caller, cityKey string) (*Favorite, error) {
	cityKey = CanonicalCityKey(cityKey)
	if cityKey == "" {
		return nil, apperr.Validation("id_villeは必須です")
	}

	row, err := s.queries.DeleteFavorite(ctx, favoritedb.DeleteFavoriteParams{
		UserID:  caller,
		CityKey: cityKey,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("お気に入りが見つかりません")
	}
	if err != nil {
		return nil, apperr.Internal("お気に入りの削除に失敗しました", err)
	}

	f := toFavorite(row)
	return &f, nil
}

// toFavorite はDBの行をJSON表現に変換する。
func toFavorite(row favoritedb.Favorite) Favorite {
	return Favorite{
		ID:        row.ID,
		UserID:    row.UserID,
		CityKey:   row.CityKey,
		CityName:  row.CityName,
		CreatedAt: row.CreatedAt,
	}
}
