// Package session はクライアント側のセッション管理を提供する。
//
// Managerはローカルに保存したトークンを起動時に認証サービスで検証し、
// Unknown、Verifying、Authenticated、Unauthenticated の状態を遷移する。
// 検証できなかったトークンは信用せずに破棄する。
package session
