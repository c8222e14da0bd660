// weatherctlのエントリポイント。
// Gateway経由でログイン状態を管理し、お気に入り都市を操作するクライアント。
// トークンはローカルのSQLiteファイルに保存され、起動のたびに検証される。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/weatherplus/internal/cli"
	"github.com/nao1215/weatherplus/internal/config"
	"github.com/nao1215/weatherplus/internal/session"
	"github.com/nao1215/weatherplus/pkg/dbx"
	"github.com/nao1215/weatherplus/pkg/httpclient"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "エラー: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	db, err := dbx.OpenSQLite(cfg.SessionDB)
	if err != nil {
		return fmt.Errorf("セッションDBのオープンに失敗: %w", err)
	}
	defer db.Close()

	store, err := session.NewSQLiteTokenStore(ctx, db)
	if err != nil {
		return fmt.Errorf("トークンストアの初期化に失敗: %w", err)
	}

	client := httpclient.New(cfg.GatewayURL, httpclient.WithTimeout(cfg.Timeout))
	manager := session.NewManager(store, session.NewHTTPAuthAPI(client), session.WithTimeout(cfg.Timeout))
	app := cli.NewApp(manager, session.NewFavoritesClient(client, manager), os.Stdin)

	return cli.Execute(ctx, app, os.Args[1:], os.Stdout, os.Stderr)
}
