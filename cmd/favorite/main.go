// お気に入りサービスのエントリポイント。
// 認証済みユーザーごとのお気に入り都市を管理する。
package main

import (
	"log"

	"github.com/nao1215/weatherplus/internal/config"
	"github.com/nao1215/weatherplus/internal/favorite"
)

func main() {
	cfg, err := config.LoadFavorite()
	if err != nil {
		log.Fatalf("お気に入りサービス設定の読み込みに失敗: %v", err)
	}

	server, err := favorite.NewServer(cfg)
	if err != nil {
		log.Fatalf("お気に入りサーバーの初期化に失敗: %v", err)
	}
	defer server.Close()

	log.Printf("お気に入りサービスを起動します: :%s", cfg.Port)
	if err := server.Run(); err != nil {
		log.Printf("お気に入りサービスの起動に失敗: %v", err)
	}
}
