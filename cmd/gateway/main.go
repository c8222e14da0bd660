// API Gatewayサービスのエントリポイント。
// リクエストパスの先頭セグメントを論理サービス名として解決し、上流サービスへ転送する。
// 外部からアクセス可能な唯一のサービスであり、クライアントの単一の入口となる。
package main

import (
	"log"

	"github.com/nao1215/weatherplus/internal/config"
	"github.com/nao1215/weatherplus/internal/gateway"
)

func main() {
	cfg, err := config.LoadGateway()
	if err != nil {
		log.Fatalf("Gateway設定の読み込みに失敗: %v", err)
	}

	server := gateway.NewServer(cfg)

	log.Printf("Gatewayサービスを起動します: :%s", cfg.Port)
	if err := server.Run(); err != nil {
		log.Fatalf("Gatewayサービスの起動に失敗: %v", err)
	}
}
