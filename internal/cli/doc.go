// Package cli はweatherctlのコマンドツリーを提供する。
//
// すべてのコマンドは実行前にセッションを確定させる。お気に入りの操作は
// Authenticatedの場合のみ実行でき、サーバーのエラーメッセージはそのまま表示する。
package cli
