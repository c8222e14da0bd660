package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiterGCThreshold はこの数を超えたクライアントを保持した時点で古いエントリを掃除する。
const clientLimiterGCThreshold = 1000

// clientLimiterIdle は最後のリクエストからこの時間が経過したクライアントを掃除対象とする。
const clientLimiterIdle = 10 * time.Minute

// clientLimiter はクライアント1つ分のレート制限状態。
type clientLimiter struct {
	// limiter はトークンバケット。
	limiter *rate.Limiter
	// lastSeen は最後にリクエストを受け付けた時刻。
	lastSeen time.Time
}

// RateLimiter はクライアントIP単位で1分あたりのリクエスト数を制限する。
type RateLimiter struct {
	rpm     int
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewRateLimiter は1分あたりrpm件までを許可するRateLimiterを生成する。
// rpmが0以下の場合は制限しない。
func NewRateLimiter(rpm int) *RateLimiter {
	return &RateLimiter{
		rpm:     rpm,
		clients: map[string]*clientLimiter{},
	}
}

// Handler はレート制限を行うGinミドルウェアを返す。
// 上限を超えたリクエストは429で中断し、Retry-Afterヘッダーを付与する。
func (r *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.rpm <= 0 {
			c.Next()
			return
		}

		if !r.limiterFor(c.ClientIP()).Allow() {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "リクエストが多すぎます",
			})
			return
		}
		c.Next()
	}
}

// limiterFor はクライアントIPに対応するリミッターを返す。無ければ生成する。
func (r *RateLimiter) limiterFor(clientIP string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if cl, ok := r.clients[clientIP]; ok {
		cl.lastSeen = now
		return cl.limiter
	}

	cl := &clientLimiter{
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(r.rpm)), r.rpm),
		lastSeen: now,
	}
	r.clients[clientIP] = cl
	r.gcLocked(now)
	return cl.limiter
}

// gcLocked は一定時間アクセスの無いクライアントを削除する。r.muを保持して呼び出すこと。
func (r *RateLimiter) gcLocked(now time.Time) {
	if len(r.clients) < clientLimiterGCThreshold {
		return
	}
	cutoff := now.Add(-clientLimiterIdle)
	for ip, cl := range r.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(r.clients, ip)
		}
	}
}
