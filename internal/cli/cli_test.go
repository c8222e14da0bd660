package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/weatherplus/internal/session"
	"github.com/nao1215/weatherplus/pkg/dbx"
	"github.com/nao1215/weatherplus/pkg/httpclient"
)

// fakeGateway はテスト用のGateway。有効なトークンは "valid-token" のみ。
type fakeGateway struct {
	mu        sync.Mutex
	favorites []session.Favorite
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	authorized := r.Header.Get("Authorization") == "Bearer valid-token"

	switch {
	case r.URL.Path == "/user/verify":
		_ = json.NewEncoder(w).Encode(map[string]bool{"valid": authorized})
	case r.URL.Path == "/user/login":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "password123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"認証情報が正しくありません"}`)
			return
		}
		_, _ = io.WriteString(w, `{"message":"ok","token":"valid-token"}`)
	case r.URL.Path == "/user/register":
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"u1","token":"valid-token"}`)
	case !authorized:
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"トークンがありません"}`)
	case r.URL.Path == "/favoris/list":
		_ = json.NewEncoder(w).Encode(g.favorites)
	case r.URL.Path == "/favoris/new":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f := session.Favorite{ID: "f", CityKey: body["id_ville"], CityName: body["nom_ville"]}
		g.favorites = append(g.favorites, f)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(f)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"お気に入りが見つかりません"}`)
	}
}

// testEnv はコマンド実行ごとに新しいManagerを組み立てるテスト環境。
// コマンド実行はプロセスの起動に相当するため、トークンストアだけを共有する。
type testEnv struct {
	gatewayURL string
	store      *session.SQLiteTokenStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gateway := httptest.NewServer(&fakeGateway{})
	t.Cleanup(gateway.Close)

	db, err := dbx.OpenSQLite(dbx.MemoryPath)
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := session.NewSQLiteTokenStore(t.Context(), db)
	if err != nil {
		t.Fatalf("トークンストアの生成に失敗: %v", err)
	}
	return &testEnv{gatewayURL: gateway.URL, store: store}
}

// run はweatherctlのコマンドを実行して標準出力とエラーを返す。
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	client := httpclient.New(e.gatewayURL)
	manager := session.NewManager(e.store, session.NewHTTPAuthAPI(client))
	app := NewApp(manager, session.NewFavoritesClient(client, manager), strings.NewReader(stdin))

	var out bytes.Buffer
	err := Execute(t.Context(), app, args, &out, io.Discard)
	return out.String(), err
}

func TestCommands(t *testing.T) {
	t.Parallel()

	t.Run("未ログインの状態ではUnauthenticatedと表示する", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		out, err := env.run(t, "", "status")
		if err != nil {
			t.Fatalf("status error = %v", err)
		}
		if strings.TrimSpace(out) != "Unauthenticated" {
			t.Errorf("出力 = %q", out)
		}
	})

	t.Run("ログイン後はトークンが保存され次回起動時にAuthenticated", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		if _, err := env.run(t, "", "login", "--email", "alice@example.com", "--password", "password123"); err != nil {
			t.Fatalf("login error = %v", err)
		}
		out, err := env.run(t, "", "status")
		if err != nil {
			t.Fatalf("status error = %v", err)
		}
		if strings.TrimSpace(out) != "Authenticated" {
			t.Errorf("出力 = %q", out)
		}
	})

	t.Run("対話入力でログインできる", func(t *testing.T) {
		orig := isTerminal
		isTerminal = func(int) bool { return false }
		t.Cleanup(func() { isTerminal = orig })
		env := newTestEnv(t)

		out, err := env.run(t, "alice@example.com\npassword123\n", "login")
		if err != nil {
			t.Fatalf("login error = %v", err)
		}
		if !strings.Contains(out, "ログインしました") {
			t.Errorf("出力 = %q", out)
		}
	})

	t.Run("ログイン失敗時はサーバーのメッセージをそのまま返す", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		_, err := env.run(t, "", "login", "-e", "alice@example.com", "-p", "wrong")
		if err == nil || err.Error() != "認証情報が正しくありません" {
			t.Errorf("login error = %v", err)
		}
	})

	t.Run("名前なしの登録はサーバーに送信せずに失敗する", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		if _, err := env.run(t, "", "register", "-e", "alice@example.com", "-p", "password123"); err == nil {
			t.Error("エラーが返されるべき")
		}
		out, _ := env.run(t, "", "status")
		if strings.TrimSpace(out) != "Unauthenticated" {
			t.Errorf("出力 = %q", out)
		}
	})

	t.Run("未ログインではお気に入りを操作できない", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		if _, err := env.run(t, "", "favorites", "list"); err == nil {
			t.Error("エラーが返されるべき")
		}
	})

	t.Run("登録後にお気に入りを追加して一覧できる", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		if _, err := env.run(t, "", "register", "-e", "alice@example.com", "-p", "password123", "-n", "Alice"); err != nil {
			t.Fatalf("register error = %v", err)
		}
		if _, err := env.run(t, "", "favorites", "add", "2988507", "Paris"); err != nil {
			t.Fatalf("favorites add error = %v", err)
		}
		out, err := env.run(t, "", "fav", "list")
		if err != nil {
			t.Fatalf("favorites list error = %v", err)
		}
		if !strings.Contains(out, "2988507") || !strings.Contains(out, "Paris") {
			t.Errorf("出力 = %q", out)
		}

		_, err = env.run(t, "", "favorites", "remove", "nowhere")
		if err == nil || err.Error() != "お気に入りが見つかりません" {
			t.Errorf("favorites remove error = %v", err)
		}
	})

	t.Run("ログアウト後は次回起動時もUnauthenticated", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		if _, err := env.run(t, "", "login", "-e", "alice@example.com", "-p", "password123"); err != nil {
			t.Fatalf("login error = %v", err)
		}
		if _, err := env.run(t, "", "logout"); err != nil {
			t.Fatalf("logout error = %v", err)
		}
		out, err := env.run(t, "", "status")
		if err != nil {
			t.Fatalf("status error = %v", err)
		}
		if strings.TrimSpace(out) != "Unauthenticated" {
			t.Errorf("出力 = %q", out)
		}
	})
}

func TestPrintFavorites(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := printFavorites(&buf, nil); err != nil {
		t.Fatalf("printFavorites() error = %v", err)
	}
	if !strings.Contains(buf.String(), "お気に入りはありません") {
		t.Errorf("出力 = %q", buf.String())
	}
}
