package user

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/weatherplus/internal/config"
	userdb "github.com/nao1215/weatherplus/internal/user/db"
	"github.com/nao1215/weatherplus/pkg/apperr"
	"github.com/nao1215/weatherplus/pkg/authtoken"
	"github.com/nao1215/weatherplus/pkg/dbx"
	"github.com/nao1215/weatherplus/pkg/middleware"
)

// Server はユーザーサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// service は認証のユースケース。
	service *Service
	// issuer はトークンの発行と検証を行う。
	issuer *authtoken.Issuer
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewServer は新しいユーザーサーバーを生成する。
// SQLiteデータベースの初期化とマイグレーションを行う。
func NewServer(cfg *config.User) (*Server, error) {
	sqlDB, err := dbx.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(context.Background(), sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	issuer, err := authtoken.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("トークン発行者の生成に失敗: %w", err)
	}

	s := newServer(sqlDB, issuer, cfg.BcryptCost)
	s.port = cfg.Port
	return s, nil
}

// newServer は初期化済みのデータベースとトークン発行者からサーバーを組み立てる。
func newServer(sqlDB *sql.DB, issuer *authtoken.Issuer, bcryptCost int) *Server {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:  router,
		service: NewService(userdb.New(sqlDB), issuer, bcryptCost),
		issuer:  issuer,
		db:      sqlDB,
	}
	s.setupRoutes()
	return s
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Close はデータベース接続を閉じる。
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	users := s.router.Group("/user")
	{
		// ユーザー登録
		users.POST("/register", s.handleRegister())
		// ログイン
		users.POST("/login", s.handleLogin())
		// トークン検証
		users.POST("/verify", s.handleVerify())
		// 呼び出し元のユーザー情報
		users.GET("/me", middleware.JWTAuth(s.issuer), s.handleMe())
		// ユーザー取得
		users.GET("/:id", s.handleGetByID())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "user"})
	})
}

// registerRequest はユーザー登録リクエストのJSON構造。
type registerRequest struct {
	// Email はメールアドレス。
	Email string `json:"email"`
	// Password は平文のパスワード。
	Password string `json:"password"`
	// Name は表示名。
	Name string `json:"name"`
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	// Email はメールアドレス。
	Email string `json:"email"`
	// Password は平文のパスワード。
	Password string `json:"password"`
}

// verifyRequest はトークン検証リクエストのJSON構造。
type verifyRequest struct {
	// Token は検証するトークン。Authorizationヘッダーが無い場合に使用する。
	Token string `json:"token"`
}

// registerResponse はユーザー登録レスポンスのJSON構造。
type registerResponse struct {
	*User
	// Token は発行したトークン。
	Token string `json:"token"`
}

// loginResponse はログインレスポンスのJSON構造。
type loginResponse struct {
	// Message は結果メッセージ。
	Message string `json:"message"`
	// Token は発行したトークン。
	Token string `json:"token"`
}

// handleRegister はユーザーを登録するハンドラを返す。
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Write(c, apperr.Validation("リクエストが不正です"))
			return
		}

		user, token, err := s.service.Register(c.Request.Context(), req.Email, req.Password, req.Name)
		if err != nil {
			apperr.Write(c, err)
			return
		}

		c.JSON(http.StatusCreated, registerResponse{User: user, Token: token})
	}
}

// handleLogin はログインしてトークンを返すハンドラを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Write(c, apperr.Validation("リクエストが不正です"))
			return
		}

		token, err := s.service.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			apperr.Write(c, err)
			return
		}

		c.JSON(http.StatusOK, loginResponse{Message: "ログインに成功しました", Token: token})
	}
}

// handleVerify はトークンを検証するハンドラを返す。
// 検証結果に関わらず200で {valid, claims?} を返す。
func (s *Server) handleVerify() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := middleware.BearerToken(c)
		if token == "" {
			var req verifyRequest
			// ボディが無い、または不正な場合は空トークンとして検証する
			_ = c.ShouldBindJSON(&req)
			token = req.Token
		}

		c.JSON(http.StatusOK, s.service.Verify(token))
	}
}

// handleMe は呼び出し元のユーザー情報を返すハンドラを返す。
func (s *Server) handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.GetClaims(c)
		if !ok {
			apperr.Write(c, apperr.Auth("トークンがありません"))
			return
		}

		user, err := s.service.callerFromClaims(c.Request.Context(), claims)
		if err != nil {
			apperr.Write(c, err)
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// handleGetByID はIDでユーザーを取得するハンドラを返す。
func (s *Server) handleGetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.service.GetUserByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			apperr.Write(c, err)
			return
		}

		c.JSON(http.StatusOK, user)
	}
}
