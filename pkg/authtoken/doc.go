// Package authtoken はセッショントークン（JWT）の発行と検証を提供する。
//
// トークンはHS256で署名され、subject（ユーザーID）、メールアドレス、
// 発行時刻、有効期限を持つ。サーバー側にセッション状態は持たず、
// 失効は有効期限のみで判断する。
package authtoken
