package middleware

import (
	"github.com/gin-gonic/gin"

	ctxpkg "github.com/yeisme/creativevault/pkg/context"
)

// OperatorHeader 携带审核人标识的请求头.
const OperatorHeader = "X-Operator"

// OperatorMiddleware 将 X-Operator 请求头写入请求上下文.
func OperatorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if op := c.GetHeader(OperatorHeader); op != "" {
			c.Request = c.Request.WithContext(ctxpkg.WithOperator(c.Request.Context(), op))
		}

		c.Next()
	}
}
