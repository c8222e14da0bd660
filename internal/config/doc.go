// Package config は各バイナリの設定を読み込む。
//
// カレントディレクトリの .env を読み込んだ後、環境変数と既定値から
// 設定値を組み立てる。Gatewayのルーティングテーブルは起動時に一度だけ
// 構築され、以降は変更されない値として各コンポーネントに渡される。
package config
