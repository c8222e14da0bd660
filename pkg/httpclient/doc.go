// Package httpclient はJSON APIを呼び出すHTTPクライアントを提供する。
//
// クライアントのセッション管理やお気に入り操作がGateway経由で
// 各サービスを呼び出す際に使用する。Bearerトークンの付与と、
// エラーレスポンスの "error" メッセージをそのまま呼び出し元に返す
// 振る舞いを統一する。
package httpclient
