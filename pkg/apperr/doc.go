// Package apperr は全サービス共通のエラー分類を提供する。
//
// エラーの種類（Kind）ごとにHTTPステータスコードを1つだけ割り当て、
// サービスごとに「見つからない」が400になったり404になったりする
// 不整合を防ぐ。
package apperr
