package favorite

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/weatherplus/internal/config"
	favoritedb "github.com/nao1215/weatherplus/internal/favorite/db"
	"github.com/nao1215/weatherplus/pkg/apperr"
	"github.com/nao1215/weatherplus/pkg/authtoken"
	"github.com/nao1215/weatherplus/pkg/dbx"
	"github.com/nao1215/weatherplus/pkg/middleware"
)

// Server はお気に入りサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// service はお気に入りのユースケース。
	service *Service
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewServer は新しいお気に入りサーバーを生成する。
// SQLiteデータベースの初期化とマイグレーションを行う。
func NewServer(cfg *config.Favorite) (*Server, error) {
	sqlDB, err := dbx.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(context.Background(), sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	verifier, err := authtoken.NewVerifier(cfg.JWTSecret)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("トークン検証器の生成に失敗: %w", err)
	}

	s := newServer(sqlDB, verifier)
	s.port = cfg.Port
	return s, nil
}

// newServer は初期化済みのデータベースとトークン検証器からサーバーを組み立てる。
func newServer(sqlDB *sql.DB, verifier middleware.TokenVerifier) *Server {
	router := gin.New()
	// 都市キーに "/" を含む場合も :id_ville にエスケープされたまま一致させる。
	router.UseRawPath = true
	router.UnescapePathValues = true
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:  router,
		service: NewService(favoritedb.New(sqlDB)),
		db:      sqlDB,
	}
	s.setupRoutes(verifier)
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
func (s *Server) setupRoutes(verifier middleware.TokenVerifier) {
	favoris := s.router.Group("/favoris")
	favoris.Use(middleware.JWTAuth(verifier))
	{
		// お気に入り一覧取得
		favoris.GET("/list", s.handleList())
		// お気に入り追加
		favoris.POST("/new", s.handleAdd())
		// お気に入り削除
		favoris.DELETE("/delete/:id_ville", s.handleRemove())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "favorite"})
	})
}

// addFavoriteRequest はお気に入り追加リクエストのJSON構造。
type addFavoriteRequest struct {
	// CityKey は都市キー。
	CityKey string `json:"id_ville"`
	// CityName は都市の表示名。
	CityName string `json:"nom_ville"`
}

// removeFavoriteResponse はお気に入り削除レスポンスのJSON構造。
type removeFavoriteResponse struct {
	// Message は結果メッセージ。
	Message string `json:"message"`
	// Favorite は削除したお気に入り。
	Favorite *Favorite `json:"favoris"`
}

// handleList は呼び出し元のお気に入り一覧を返すハンドラを返す。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		favorites, err := s.service.List(c.Request.Context(), middleware.GetUserID(c))
		if err != nil {
			apperr.Write(c, err)
			return
		}

		c.JSON(http.StatusOK, favorites)
	}
}

// handleAdd はお気に入りを追加するハンドラを返す。
func (s *Server) handleAdd() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addFavoriteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Write(c, apperr.Validation("リクエストが不正です"))
			return
		}

		favorite, err := s.service.Add(c.Request.Context(), middleware.GetUserID(c), req.CityKey, req.CityName)
		if err != nil {
			apperr.Write(c, err)
			return
		}

		c.JSON(http.StatusCreated, favorite)
	}
}

// handleRemove はお気に入りを削除するハンドラを返す。
func (s *Server) handleRemove() gin.HandlerFunc {
	return func(c *gin.Context) {
		favorite, err := s.service.Remove(c.Request.Context(), middleware.GetUserID(c), c.Param("id_ville"))
		if err != nil {
			apperr.Write(c, err)
			return
		}

		c.JSON(http.StatusOK, removeFavoriteResponse{
			Message:  "お気に入りを削除しました",
			Favorite: favorite,
		})
	}
}
