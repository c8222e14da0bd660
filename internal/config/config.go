package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// defaultJWTSecret は開発用の署名鍵。本番環境ではJWT_SECRETを必ず設定すること。
const defaultJWTSecret = "dev-secret-key"

// Gateway はGatewayサービスの設定。
type Gateway struct {
	// Port はリッスンポート。
	Port string
	// Routes は論理サービス名から上流ベースURLへの対応表。
	Routes RouteTable
	// AllowedOrigins はCORSで許可するオリジン。
	AllowedOrigins []string
	// RateLimitRPM はクライアントIPあたりの1分間のリクエスト上限。0で無制限。
	RateLimitRPM int
}

// User はユーザー（認証）サービスの設定。
type User struct {
	// Port はリッスンポート。
	Port string
	// DBPath はSQLiteデータベースファイルのパス。
	DBPath string
	// JWTSecret はトークン署名用の秘密鍵。
	JWTSecret string
	// TokenTTL はトークンの有効期間。
	TokenTTL time.Duration
	// BcryptCost はパスワードハッシュのコスト。
	BcryptCost int
}

// Favorite はお気に入りサービスの設定。
type Favorite struct {
	// Port はリッスンポート。
	Port string
	// DBPath はSQLiteデータベースファイルのパス。
	DBPath string
	// JWTSecret はトークン検証用の秘密鍵。ユーザーサービスと同じ値を使う。
	JWTSecret string
}

// Client はweatherctlクライアントの設定。
type Client struct {
	// GatewayURL はGatewayのベースURL。
	GatewayURL string
	// SessionDB はトークンを保存するローカルSQLiteファイルのパス。
	SessionDB string
	// Timeout はネットワーク呼び出し1件あたりのタイムアウト。
	Timeout time.Duration
}

// loadDotEnv は .env を読み込む。ファイルが無い場合は何もしない。
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf(".envの読み込みに失敗: %w", err)
	}
	return nil
}

// LoadGateway はGatewayサービスの設定を読み込む。
func LoadGateway() (*Gateway, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	routes, err := loadRoutes()
	if err != nil {
		return nil, err
	}
	rpm, err := getInt("RATE_LIMIT_RPM", 100)
	if err != nil {
		return nil, err
	}

	return &Gateway{
		Port:           getEnvOr("PORT", "4000"),
		Routes:         routes,
		AllowedOrigins: splitCSV(getEnvOr("CORS_ORIGINS", "*")),
		RateLimitRPM:   rpm,
	}, nil
}

// LoadUser はユーザーサービスの設定を読み込む。
func LoadUser() (*User, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	ttl, err := getDuration("JWT_EXPIRES_IN", time.Hour)
	if err != nil {
		return nil, err
	}
	cost, err := getInt("BCRYPT_COST", 10)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("JWT_EXPIRES_IN は正の値である必要があります: %s", ttl)
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST は%dから%dの範囲で指定してください: %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}

	return &User{
		Port:       getEnvOr("PORT", "3004"),
		DBPath:     getEnvOr("DB_PATH", "/data/user.db"),
		JWTSecret:  getEnvOr("JWT_SECRET", defaultJWTSecret),
		TokenTTL:   ttl,
		BcryptCost: cost,
	}, nil
}

// LoadFavorite はお気に入りサービスの設定を読み込む。
func LoadFavorite() (*Favorite, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	return &Favorite{
		Port:      getEnvOr("PORT", "3005"),
		DBPath:    getEnvOr("DB_PATH", "/data/favorite.db"),
		JWTSecret: getEnvOr("JWT_SECRET", defaultJWTSecret),
	}, nil
}

// LoadClient はweatherctlクライアントの設定を読み込む。
func LoadClient() (*Client, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	timeout, err := getDuration("WEATHERPLUS_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	sessionDB := os.Getenv("WEATHERPLUS_SESSION_DB")
	if sessionDB == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("ホームディレクトリの取得に失敗: %w", err)
		}
		sessionDB = filepath.Join(home, ".weatherplus", "session.db")
	}

	return &Client{
		GatewayURL: strings.TrimSuffix(getEnvOr("WEATHERPLUS_GATEWAY_URL", "http://localhost:4000"), "/"),
		SessionDB:  sessionDB,
		Timeout:    timeout,
	}, nil
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

// getInt は整数の環境変数を取得する。値が不正な場合はエラーを返す。
func getInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s の値が不正です: %q", key, raw)
	}
	return v, nil
}

// getDuration は時間間隔の環境変数を取得する。値が不正な場合はエラーを返す。
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s の値が不正です: %q", key, raw)
	}
	return v, nil
}

// splitCSV はカンマ区切りの文字列を分割し、空要素を取り除く。
func splitCSV(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
