// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// Bearerトークンの検証（認証ゲート）、パニックリカバリ、CORS設定、
// クライアントIP単位のレート制限など、全サービスで共通して使用する
// ミドルウェアを含む。
package middleware
