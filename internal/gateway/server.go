package gateway

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/weatherplus/internal/config"
	"github.com/nao1215/weatherplus/pkg/apperr"
	"github.com/nao1215/weatherplus/pkg/middleware"
)

// upstreamHeaderTimeout は上流サービスがレスポンスヘッダーを返すまでの上限。
const upstreamHeaderTimeout = 30 * time.Second

// hopHeaders は転送しないホップバイホップヘッダー。
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Server はAPI GatewayサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// routes は論理サービス名から上流ベースURLへの対応表。起動後は変更しない。
	routes config.RouteTable
	// client は上流サービスへの転送に使うHTTPクライアント。
	client *http.Client
}

// NewServer は新しいGatewayサーバーを生成する。
func NewServer(cfg *config.Gateway) *Server {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.NewRateLimiter(cfg.RateLimitRPM).Handler())

	s := newServer(router, cfg.Routes, newUpstreamClient())
	s.port = cfg.Port
	return s
}

// newServer はルーターとルーティングテーブルからサーバーを組み立てる。
func newServer(router *gin.Engine, routes config.RouteTable, client *http.Client) *Server {
	s := &Server{
		router: router,
		routes: routes,
		client: client,
	}
	s.setupRoutes()
	return s
}

// newUpstreamClient は転送用のHTTPクライアントを生成する。
// リダイレクトは追従せず、上流のレスポンスをそのまま返す。
func newUpstreamClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = upstreamHeaderTimeout
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	log.Printf("ルーティングテーブル: %v", s.routes.Names())
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
// /health 以外のすべてのパスは論理サービス名による転送の対象になる。
func (s *Server) setupRoutes() {
	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})

	s.router.NoRoute(s.handleRoute())
}

// splitServicePath はパスを先頭セグメントと残りのパスに分ける。
// "/user/login" は ("user", "/login")、"/user" は ("user", "") になる。
func splitServicePath(path string) (string, string) {
	name, rest, found := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if !found {
		return name, ""
	}
	return name, "/" + rest
}

// handleRoute は論理サービス名で上流サービスを解決して転送するハンドラを返す。
// 解決できない場合は転送せずに502を返す。
func (s *Server) handleRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		name, remainder := splitServicePath(c.Request.URL.EscapedPath())

		base, ok := s.routes.Lookup(name)
		if !ok {
			apperr.Write(c, apperr.Routing(fmt.Sprintf("Service %s non disponible.", name)))
			return
		}

		target := base + remainder
		if c.Request.URL.RawQuery != "" {
			target += "?" + c.Request.URL.RawQuery
		}
		s.doProxy(c, name, target)
	}
}

// doProxy はリクエストのメソッド、ヘッダー、ボディを上流サービスへ転送し、
// 上流のステータス、ヘッダー、ボディをそのまま返す。
func (s *Server) doProxy(c *gin.Context, name, target string) {
	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, c.Request.Body)
	if err != nil {
		apperr.Write(c, apperr.Internal("プロキシリクエストの作成に失敗しました", err))
		return
	}
	req.Header = c.Request.Header.Clone()
	removeHopHeaders(req.Header)
	req.ContentLength = c.Request.ContentLength

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("プロキシエラー: service=%s, url=%s, error=%v", name, target, err)
		apperr.Write(c, apperr.Routing(fmt.Sprintf("サービス %s との通信に失敗しました", name)))
		return
	}
	defer resp.Body.Close()

	removeHopHeaders(resp.Header)
	dst := c.Writer.Header()
	for key, values := range resp.Header {
		dst[key] = append([]string(nil), values...)
	}
	c.Status(resp.StatusCode)

	if _, err := io.Copy(c.Writer, resp.Body); err != nil && !errors.Is(err, c.Request.Context().Err()) {
		log.Printf("レスポンス転送エラー: service=%s, url=%s, error=%v", name, target, err)
	}
}

// removeHopHeaders はホップバイホップヘッダーと、Connectionヘッダーで指定されたヘッダーを取り除く。
func removeHopHeaders(h http.Header) {
	for _, field := range h.Values("Connection") {
		for name := range strings.SplitSeq(field, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopHeaders {
		h.Del(name)
	}
}
