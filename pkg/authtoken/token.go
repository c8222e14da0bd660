package authtoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultIssuer はトークンのiss クレームに設定する発行者名。
const DefaultIssuer = "weatherplus-user"

// Claims はセッショントークンのクレーム（ペイロード）を表す。
type Claims struct {
	jwt.RegisteredClaims
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
}

// UserID はsubjectに格納されたユーザーIDを返す。
func (c *Claims) UserID() string {
	return c.Subject
}

// Result はトークン検証の結果。
type Result struct {
	// Valid はトークンが有効かどうか。
	Valid bool `json:"valid"`
	// Claims は有効な場合のみ設定されるクレーム。
	Claims *Claims `json:"claims,omitempty"`
}

// Issuer はトークンの発行と検証を行う。生成後は不変で、並行に呼び出してよい。
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// Option はIssuerの設定を変更する。
type Option func(*Issuer)

// WithClock は現在時刻の取得関数を差し替える。テストで使用する。
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// NewIssuer は署名鍵と有効期間からIssuerを生成する。
func NewIssuer(secret string, ttl time.Duration, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("署名鍵が空です")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("トークンの有効期間が不正です: %s", ttl)
	}
	i := &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// NewVerifier は検証専用のIssuerを生成する。返されたIssuerのIssueは常にエラーを返す。
func NewVerifier(secret string, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("署名鍵が空です")
	}
	i := &Issuer{
		secret: []byte(secret),
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue はユーザー情報から署名済みトークンを生成する。
func (i *Issuer) Issue(userID, email string) (string, error) {
	if i.ttl <= 0 {
		return "", errors.New("検証専用のIssuerではトークンを発行できません")
	}
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Email: email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証する。署名不一致、形式不正、期限切れのいずれも
// エラーではなく{Valid: false}として返す。副作用を持たない。
func (i *Issuer) Verify(tokenString string) Result {
	if tokenString == "" {
		return Result{}
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return Result{}
	}

	// jwtライブラリは exp と同時刻を有効とみなすため、now >= exp を無効として扱う
	if !i.now().Before(claims.ExpiresAt.Time) {
		return Result{}
	}
	if claims.Subject == "" {
		return Result{}
	}
	return Result{Valid: true, Claims: claims}
}
