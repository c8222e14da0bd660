package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/weatherplus/pkg/apperr"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック値とスタックトレースを内部エラーとして記録し、500を返す。
// 既にレスポンスを書き始めている場合はステータスを変更できないため中断のみ行う。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err := apperr.Internal("パニック", fmt.Errorf("[PANIC] %v\n%s", r, debug.Stack()))
			if c.Writer.Written() {
				c.Abort()
				return
			}
			apperr.Write(c, err)
		}()
		c.Next()
	}
}
