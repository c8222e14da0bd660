// Package gateway はAPI Gatewayサービスの内部実装を提供する。
//
// リクエストパスの先頭セグメントを論理サービス名として起動時に固定した
// ルーティングテーブルを引き、残りのパスを上流サービスへそのまま転送する。
// 認証や入力検証は転送先のサービスが行い、Gatewayはボディを解釈しない。
//
// 未登録のサービス名には502を返す。ボディは他のエラーと同じ
// {"error": "Service <name> non disponible."} 形式のJSONで、
// メッセージだけをテキストで返すのではない点に注意すること。
package gateway
