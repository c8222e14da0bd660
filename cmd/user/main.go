// ユーザーサービスのエントリポイント。
// ユーザー登録、ログイン、トークン検証を担当する。
// トークンを発行する唯一のサービスであり、他のサービスは同じ秘密鍵で検証のみ行う。
package main

import (
	"log"

	"github.com/nao1215/weatherplus/internal/config"
	"github.com/nao1215/weatherplus/internal/user"
)

func main() {
	cfg, err := config.LoadUser()
	if err != nil {
		log.Fatalf("ユーザーサービス設定の読み込みに失敗: %v", err)
	}

	server, err := user.NewServer(cfg)
	if err != nil {
		log.Fatalf("ユーザーサーバーの初期化に失敗: %v", err)
	}
	defer server.Close()

	log.Printf("ユーザーサービスを起動します: :%s", cfg.Port)
	if err := server.Run(); err != nil {
		log.Printf("ユーザーサービスの起動に失敗: %v", err)
	}
}
