package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/weatherplus/pkg/apperr"
	"github.com/nao1215/weatherplus/pkg/authtoken"
)

// TokenVerifier はBearerトークンを検証する。
// *authtoken.Issuer が満たす。
type TokenVerifier interface {
	Verify(token string) authtoken.Result
}

const (
	// contextKeyUserID はGinコンテキストに認証済みユーザーIDを格納するキー。
	contextKeyUserID = "user_id"
	// contextKeyEmail はGinコンテキストに認証済みメールアドレスを格納するキー。
	contextKeyEmail = "email"
	// contextKeyClaims はGinコンテキストにクレーム全体を格納するキー。
	contextKeyClaims = "claims"
)

// BearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// ヘッダーが無い、またはBearer形式でない場合は空文字列を返す。
func BearerToken(c *gin.Context) string {
	tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(tokenString)
}

// JWTAuth はBearerトークンを検証するGinミドルウェアを返す。
// 検証に失敗した場合は後続のハンドラを一切実行せずに401で中断する。
// 成功した場合、コンテキストに "user_id"、"email"、"claims" を設定する。
func JWTAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := BearerToken(c)
		if tokenString == "" {
			apperr.Write(c, apperr.Auth("トークンがありません"))
			return
		}

		result := verifier.Verify(tokenString)
		if !result.Valid {
			apperr.Write(c, apperr.Auth("トークンが無効または期限切れです"))
			return
		}

		c.Set(contextKeyUserID, result.Claims.UserID())
		c.Set(contextKeyEmail, result.Claims.Email)
		c.Set(contextKeyClaims, result.Claims)
		c.Next()
	}
}

// GetUserID はGinコンテキストからユーザーIDを取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get(contextKeyUserID)
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetClaims はGinコンテキストから検証済みクレームを取得する。
func GetClaims(c *gin.Context) (*authtoken.Claims, bool) {
	v, ok := c.Get(contextKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*authtoken.Claims)
	return claims, ok
}
