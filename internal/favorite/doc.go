// Package favorite はお気に入り都市サービスの内部実装を提供する。
//
// すべての操作はJWTで認証された呼び出し元のユーザーに限定される。
// (ユーザー, 都市キー) の一意性はストアの一意制約で保証する。
package favorite
