package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	userdb "github.com/nao1215/weatherplus/internal/user/db"
	"github.com/nao1215/weatherplus/pkg/apperr"
	"github.com/nao1215/weatherplus/pkg/authtoken"
	"golang.org/x/crypto/bcrypt"
)

// User は呼び出し元に返すユーザー情報。パスワードハッシュは含まない。
type User struct {
	// ID はユーザーの一意識別子。
	ID string `json:"id"`
	// Email はメールアドレス。
	Email string `json:"email"`
	// Name は表示名。
	Name string `json:"name"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"created_at"`
}

// Service は認証のユースケースを実装する。
// リクエスト間で共有する可変状態を持たないため、並行に呼び出してよい。
type Service struct {
	queries    *userdb.Queries
	issuer     *authtoken.Issuer
	bcryptCost int
	now        func() time.Time
}

// NewService はServiceを生成する。
func NewService(queries *userdb.Queries, issuer *authtoken.Issuer, bcryptCost int) *Service {
	return &Service{
		queries:    queries,
		issuer:     issuer,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Register はユーザーを登録し、登録したユーザーと新しいトークンを返す。
// メールアドレスの重複はストアの一意制約で検出し、ConflictErrorを返す。
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, string, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" {
		return nil, "", apperr.Validation("メールアドレスは必須です")
	}
	if password == "" {
		return nil, "", apperr.Validation("パスワードは必須です")
	}
	if name == "" {
		return nil, "", apperr.Validation("名前は必須です")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, "", apperr.Validation("パスワードが長すぎます")
	}
	if err != nil {
		return nil, "", apperr.Internal("パスワードのハッシュ化に失敗しました", err)
	}

	row := userdb.CreateUserParams{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		CreatedAt:    s.now().UTC().Truncate(time.Second),
	}
	if err := s.queries.CreateUser(ctx, row); err != nil {
		if errors.Is(err, userdb.ErrDuplicate) {
			return nil, "", apperr.Conflict("このメールアドレスは既に登録されています")
		}
		return nil, "", apperr.Internal("ユーザーの作成に失敗しました", err)
	}

	token, err := s.issuer.Issue(row.ID, row.Email)
	if err != nil {
		return nil, "", apperr.Internal("トークンの生成に失敗しました", err)
	}

	return &User{
		ID:        row.ID,
		Email:     row.Email,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
	}, token, nil
}

// Login はメールアドレスとパスワードを照合し、新しいトークンを返す。
// サーバー側にセッションは作成しない。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", apperr.Validation("メールアドレスとパスワードは必須です")
	}

	row, err := s.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.Auth("ユーザーが見つかりません")
	}
	if err != nil {
		return "", apperr.Internal("ユーザーの取得に失敗しました", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return "", apperr.Auth("認証情報が正しくありません")
	}

	token, err := s.issuer.Issue(row.ID, row.Email)
	if err != nil {
		return "", apperr.Internal("トークンの生成に失敗しました", err)
	}
	return token, nil
}

// Verify はトークンを検証する。失敗はすべて {valid: false} として返し、エラーにはしない。
func (s *Service) Verify(token string) authtoken.Result {
	return s.issuer.Verify(token)
}

// GetUserByID はIDでユーザーを取得する。存在しない場合はNotFoundError。
func (s *Service) GetUserByID(ctx context.Context, id string) (*User, error) {
	row, err := s.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("ユーザーが見つかりません")
	}
	if err != nil {
		return nil, apperr.Internal("ユーザーの取得に失敗しました", err)
	}
	return toUser(row), nil
}

// GetCallerIdentity はトークンを検証し、その主体のユーザーを返す。
// トークンが無効、または主体のユーザーが既に存在しない場合はAuthError。
func (s *Service) GetCallerIdentity(ctx context.Context, token string) (*User, error) {
	result := s.issuer.Verify(token)
	if !result.Valid {
		return nil, apperr.Auth("トークンが無効または期限切れです")
	}
	return s.callerFromClaims(ctx, result.Claims)
}

// callerFromClaims は検証済みクレームの主体のユーザーを返す。
func (s *Service) callerFromClaims(ctx context.Context, claims *authtoken.Claims) (*User, error) {
	row, err := s.queries.GetUserByID(ctx, claims.UserID())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Auth("ユーザーが存在しません")
	}
	if err != nil {
		return nil, apperr.Internal("ユーザーの取得に失敗しました", err)
	}
	return toUser(row), nil
}

// toUser はDBの行を公開用のUserに変換する。
func toUser(row userdb.User) *User {
	return &User{
		ID:        row.ID,
		Email:     row.Email,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
	}
}
