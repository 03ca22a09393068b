package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"blogpulse/internal/ratelimit"
)

// RateLimitMiddleware 以登入用戶為單位限制請求頻率
// limiter 為 nil 時整個中間件退化為直接放行
func RateLimitMiddleware(limiter *ratelimit.FixedWindowLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		// 限流 key 優先用用戶 ID，沒有登入訊息時退回來源 IP
		key := c.ClientIP()
		if userID, exists := c.Get("userID"); exists {
			key = fmt.Sprintf("user:%v", userID)
		}

		if !limiter.Allow(key) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
