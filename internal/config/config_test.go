package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestLoadUser(t *testing.T) {
	t.Run("未設定の場合はデフォルト値を返す", func(t *testing.T) {
		t.Setenv("PORT", "")
		t.Setenv("JWT_SECRET", "")
		t.Setenv("JWT_EXPIRES_IN", "")
		t.Setenv("BCRYPT_COST", "")

		cfg, err := LoadUser()
		if err != nil {
			t.Fatalf("LoadUser() error = %v", err)
		}
		if cfg.Port != "3004" {
			t.Errorf("Port = %q, want %q", cfg.Port, "3004")
		}
		if cfg.JWTSecret != defaultJWTSecret {
			t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, defaultJWTSecret)
		}
		if cfg.TokenTTL != time.Hour {
			t.Errorf("TokenTTL = %v, want %v", cfg.TokenTTL, time.Hour)
		}
		if cfg.BcryptCost != 10 {
			t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
		}
	})

	t.Run("環境変数の値を使用する", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("JWT_EXPIRES_IN", "15m")
		t.Setenv("BCRYPT_COST", "4")

		cfg, err := LoadUser()
		if err != nil {
			t.Fatalf("LoadUser() error = %v", err)
		}
		if cfg.Port != "9000" || cfg.JWTSecret != "s3cret" || cfg.TokenTTL != 15*time.Minute || cfg.BcryptCost != 4 {
			t.Errorf("LoadUser() = %+v", cfg)
		}
	})

	t.Run("不正な有効期間はエラーになる", func(t *testing.T) {
		t.Setenv("JWT_EXPIRES_IN", "one hour")
		if _, err := LoadUser(); err == nil {
			t.Error("エラーが返されるべき")
		}
	})

	t.Run("0以下の有効期間はエラーになる", func(t *testing.T) {
		t.Setenv("JWT_EXPIRES_IN", "0s")
		if _, err := LoadUser(); err == nil {
			t.Error("エラーが返されるべき")
		}
	})

	t.Run("不正なコストはエラーになる", func(t *testing.T) {
		t.Setenv("JWT_EXPIRES_IN", "")
		t.Setenv("BCRYPT_COST", "ten")
		if _, err := LoadUser(); err == nil {
			t.Error("エラーが返されるべき")
		}
	})

	t.Run("範囲外のコストはエラーになる", func(t *testing.T) {
		t.Setenv("JWT_EXPIRES_IN", "")
		for _, cost := range []string{"3", "32", "-1"} {
			t.Setenv("BCRYPT_COST", cost)
			if _, err := LoadUser(); err == nil {
				t.Errorf("BCRYPT_COST=%s でエラーが返されるべき", cost)
			}
		}
	})
}

func TestLoadGateway(t *testing.T) {
	t.Run("未設定の場合は既定のルーティングを使用する", func(t *testing.T) {
		t.Setenv("ROUTES_FILE", "")
		t.Setenv("GATEWAY_ROUTES", "")
		t.Setenv("CORS_ORIGINS", "")
		t.Setenv("RATE_LIMIT_RPM", "")

		cfg, err := LoadGateway()
		if err != nil {
			t.Fatalf("LoadGateway() error = %v", err)
		}
		if cfg.Port != "4000" {
			t.Errorf("Port = %q, want %q", cfg.Port, "4000")
		}
		if cfg.RateLimitRPM != 100 {
			t.Errorf("RateLimitRPM = %d, want 100", cfg.RateLimitRPM)
		}
		if !slices.Equal(cfg.AllowedOrigins, []string{"*"}) {
			t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
		}
		if got := cfg.Routes.Names(); !slices.Equal(got, []string{"favoris", "user"}) {
			t.Errorf("Routes.Names() = %v", got)
		}
		if base, ok := cfg.Routes.Lookup("user"); !ok || base != "http://localhost:3004/user" {
			t.Errorf("Lookup(user) = %q, %v", base, ok)
		}
	})

	t.Run("GATEWAY_ROUTESからルーティングを読み込む", func(t *testing.T) {
		t.Setenv("ROUTES_FILE", "")
		t.Setenv("GATEWAY_ROUTES", "user=http://user:3004/user/, meteo=http://meteo:3006")
		t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")

		cfg, err := LoadGateway()
		if err != nil {
			t.Fatalf("LoadGateway() error = %v", err)
		}
		if base, ok := cfg.Routes.Lookup("user"); !ok || base != "http://user:3004/user" {
			t.Errorf("Lookup(user) = %q, %v", base, ok)
		}
		if _, ok := cfg.Routes.Lookup("favoris"); ok {
			t.Error("favorisは登録されていないはず")
		}
		if cfg.Routes.Len() != 2 {
			t.Errorf("Routes.Len() = %d, want 2", cfg.Routes.Len())
		}
		if !slices.Equal(cfg.AllowedOrigins, []string{"http://a.example", "http://b.example"}) {
			t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
		}
	})

	t.Run("ROUTES_FILEがGATEWAY_ROUTESより優先される", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "routes.yaml")
		content := "routes:\n  user: http://user-from-file:3004/user\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("ファイル作成に失敗: %v", err)
		}
		t.Setenv("ROUTES_FILE", path)
		t.Setenv("GATEWAY_ROUTES", "user=http://ignored:1/user")

		cfg, err := LoadGateway()
		if err != nil {
			t.Fatalf("LoadGateway() error = %v", err)
		}
		if base, _ := cfg.Routes.Lookup("user"); base != "http://user-from-file:3004/user" {
			t.Errorf("Lookup(user) = %q", base)
		}
	})

	t.Run("不正なRATE_LIMIT_RPMはエラーになる", func(t *testing.T) {
		t.Setenv("ROUTES_FILE", "")
		t.Setenv("GATEWAY_ROUTES", "")
		t.Setenv("RATE_LIMIT_RPM", "many")
		if _, err := LoadGateway(); err == nil {
			t.Error("エラーが返されるべき")
		}
	})
}

func TestLoadClient(t *testing.T) {
	t.Setenv("WEATHERPLUS_GATEWAY_URL", "http://gw.example:4000/")
	t.Setenv("WEATHERPLUS_SESSION_DB", "/tmp/session.db")
	t.Setenv("WEATHERPLUS_TIMEOUT", "3s")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient() error = %v", err)
	}
	if cfg.GatewayURL != "http://gw.example:4000" {
		t.Errorf("GatewayURL = %q", cfg.GatewayURL)
	}
	if cfg.SessionDB != "/tmp/session.db" {
		t.Errorf("SessionDB = %q", cfg.SessionDB)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestParseRoutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "正常な指定", raw: "user=http://localhost:3004/user", wantErr: false},
		{name: "区切り文字が無い", raw: "user", wantErr: true},
		{name: "相対URL", raw: "user=/user", wantErr: true},
		{name: "スキームがhttp以外", raw: "user=ftp://localhost/user", wantErr: true},
		{name: "名前にスラッシュを含む", raw: "us/er=http://localhost/user", wantErr: true},
		{name: "名前が空", raw: "=http://localhost/user", wantErr: true},
		{name: "名前が重複", raw: "user=http://a/user,user=http://b/user", wantErr: true},
		{name: "クエリを含む", raw: "user=http://localhost/user?x=1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseRoutes(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseRoutes(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestRouteTable(t *testing.T) {
	t.Parallel()

	t.Run("生成後に元のマップを変更しても影響しない", func(t *testing.T) {
		t.Parallel()
		src := map[string]string{"user": "http://localhost:3004/user"}
		table, err := NewRouteTable(src)
		if err != nil {
			t.Fatalf("NewRouteTable() error = %v", err)
		}
		src["user"] = "http://evil.example"
		src["extra"] = "http://extra.example"

		if base, _ := table.Lookup("user"); base != "http://localhost:3004/user" {
			t.Errorf("Lookup(user) = %q", base)
		}
		if _, ok := table.Lookup("extra"); ok {
			t.Error("extraは登録されていないはず")
		}
	})

	t.Run("名前は完全一致で検索する", func(t *testing.T) {
		t.Parallel()
		table, err := NewRouteTable(map[string]string{"user": "http://localhost:3004/user"})
		if err != nil {
			t.Fatalf("NewRouteTable() error = %v", err)
		}
		for _, name := range []string{"User", "users", "use", ""} {
			if _, ok := table.Lookup(name); ok {
				t.Errorf("Lookup(%q) は見つからないはず", name)
			}
		}
	})

	t.Run("YAMLファイルにroutesが無い場合はエラー", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "routes.yaml")
		if err := os.WriteFile(path, []byte("services: {}\n"), 0o600); err != nil {
			t.Fatalf("ファイル作成に失敗: %v", err)
		}
		if _, err := LoadRoutesFile(path); err == nil {
			t.Error("エラーが返されるべき")
		}
	})
}
