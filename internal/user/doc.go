// Package user はユーザー（認証）サービスの内部実装を提供する。
//
// ユーザー登録、ログイン、トークン検証を担当する。パスワードはbcryptで
// ハッシュ化して保存し、平文やハッシュを呼び出し元に返すことはない。
// トークンはステートレスであり、サーバー側にセッションは保持しない。
package user
