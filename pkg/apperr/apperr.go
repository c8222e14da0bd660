package apperr

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind はエラーの分類を表す。
type Kind int

const (
	// KindInternal は分類できない内部エラー。
	KindInternal Kind = iota
	// KindValidation は必須項目の欠落や不正な形式の入力。
	KindValidation
	// KindAuth はトークンの欠落・不正・期限切れ、または認証情報の誤り。
	KindAuth
	// KindConflict は一意キーの重複。
	KindConflict
	// KindNotFound は所有者スコープの検索で該当レコードが無いこと。
	KindNotFound
	// KindRouting はGatewayで論理サービス名を解決できないこと。
	KindRouting
)

// String はKindの名前を返す。
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindAuth:
		return "AuthError"
	case KindConflict:
		return "ConflictError"
	case KindNotFound:
		return "NotFoundError"
	case KindRouting:
		return "RoutingError"
	default:
		return "InternalError"
	}
}

// HTTPStatus はKindに対応する固定のHTTPステータスコードを返す。
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindRouting:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error は分類付きのアプリケーションエラー。
type Error struct {
	// Kind はエラーの分類。
	Kind Kind
	// Message は呼び出し元にそのまま返すメッセージ。
	Message string
	// Err は原因となったエラー。レスポンスには含めない。
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap は原因となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation はValidationErrorを生成する。
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Auth はAuthErrorを生成する。
func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

// Conflict はConflictErrorを生成する。
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NotFound はNotFoundErrorを生成する。
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Routing はRoutingErrorを生成する。
func Routing(message string) *Error {
	return &Error{Kind: KindRouting, Message: message}
}

// Internal は原因を保持した内部エラーを生成する。
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf はエラーチェーンからKindを取り出す。*Errorを含まない場合はKindInternal。
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is はerrが指定したKindに分類されるかを返す。
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// internalMessage は内部エラー時に返す固定メッセージ。
const internalMessage = "内部サーバーエラーが発生しました"

// Write はエラーをKindに対応したステータスコードのJSONレスポンスとして書き込み、
// 以降のハンドラを中断する。内部エラーの原因はログにのみ出力する。
func Write(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind == KindInternal {
		log.Printf("内部エラー: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": internalMessage})
		return
	}
	c.AbortWithStatusJSON(appErr.Kind.HTTPStatus(), gin.H{"error": appErr.Message})
}
