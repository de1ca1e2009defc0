package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/aquire/internal/model"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // 全リクエストのレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst    int           // 全リクエストのバーストサイズ
	LoginRate       rate.Limit    // ログインのレート（req/sec）。10/60
	LoginBurst      int           // ログインのバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 全リクエスト 120 req/min/device、ログイン 10 req/min/device。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0),
		GeneralBurst:    120,
		LoginRate:       rate.Limit(10.0 / 60.0),
		LoginBurst:      10,
		CleanupInterval: 5 * time.Minute,
	}
}

// RateLimiterConfigPerMinute は1分あたりのリクエスト数からレート制限設定を組み立てる。
// バーストサイズは1分あたりの上限と同じにする。0以下の値はデフォルト値を使う。
func RateLimiterConfigPerMinute(generalPerMinute, loginPerMinute int) RateLimiterConfig {
	cfg := DefaultRateLimiterConfig()
	if generalPerMinute > 0 {
		cfg.GeneralRate = rate.Limit(float64(generalPerMinute) / 60.0)
		cfg.GeneralBurst = generalPerMinute
	}
	if loginPerMinute > 0 {
		cfg.LoginRate = rate.Limit(float64(loginPerMinute) / 60.0)
		cfg.LoginBurst = loginPerMinute
	}
	return cfg
}

// deviceLimiter はデバイスごとのレートリミッターとアクセス時刻を保持する。
type deviceLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterPool は同じレート設定を共有するデバイスごとのリミッター群。
type limiterPool struct {
	name  string
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*deviceLimiter
}

func newLimiterPool(name string, limit rate.Limit, burst int) *limiterPool {
	return &limiterPool{
		name:     name,
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*deviceLimiter),
	}
}

// allow はデバイスのリミッターからトークンを1つ消費できるかを返す。
func (p *limiterPool) allow(deviceID string, now time.Time) bool {
	p.mu.Lock()
	dl, ok := p.limiters[deviceID]
	if !ok {
		dl = &deviceLimiter{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.limiters[deviceID] = dl
	}
	dl.lastAccess = now
	p.mu.Unlock()

	return dl.limiter.AllowN(now, 1)
}

// evict は最終アクセスからttlを超えたエントリを削除する。
func (p *limiterPool) evict(now time.Time, ttl time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for deviceID, dl := range p.limiters {
		if now.Sub(dl.lastAccess) > ttl {
			delete(p.limiters, deviceID)
		}
	}
}

func (p *limiterPool) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.limiters)
}

// retryAfter は1トークンが補充されるまでの秒数（最低1秒）。
func (p *limiterPool) retryAfter() int {
	if p.limit <= 0 {
		return 60
	}
	sec := int(math.Ceil(1.0 / float64(p.limit)))
	if sec < 1 {
		return 1
	}
	return sec
}

// RateLimiter はデバイスごとのレート制限を管理する。
// 全リクエスト向けとログイン向けの2種類を独立に提供する。
type RateLimiter struct {
	config  RateLimiterConfig
	general *limiterPool
	login   *limiterPool

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		general: newLimiterPool("general", config.GeneralRate, config.GeneralBurst),
		login:   newLimiterPool("login", config.LoginRate, config.LoginBurst),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。複数回呼んでもよい。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// GeneralMiddleware は全リクエスト向けのレート制限ミドルウェアを返す。
// DeviceMiddlewareの後に配置する。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.general)
}

// LoginMiddleware はPOST /login向けのレート制限ミドルウェアを返す。
// 全リクエスト向けの制限とは独立に動作する。
func (rl *RateLimiter) LoginMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.login)
}

func (rl *RateLimiter) middleware(pool *limiterPool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID, err := DeviceIDFromContext(r.Context())
			if err != nil {
				WriteAPIError(w, model.NewUnauthorizedError())
				return
			}

			if !pool.allow(deviceID, time.Now()) {
				slog.Warn("rate limit exceeded",
					slog.String("device_id", deviceID),
					slog.String("limit_type", pool.name),
				)
				w.Header().Set("Retry-After", strconv.Itoa(pool.retryAfter()))
				WriteAPIError(w, model.NewRateLimitedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は管理中の全リクエスト向けリミッター数を返す。
func (rl *RateLimiter) GeneralLimiterCount() int {
	return rl.general.len()
}

// LoginLimiterCount は管理中のログインリミッター数を返す。
func (rl *RateLimiter) LoginLimiterCount() int {
	return rl.login.len()
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			rl.cleanup(now)
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup(now time.Time) {
	ttl := rl.config.CleanupInterval * 2
	rl.general.evict(now, ttl)
	rl.login.evict(now, ttl)
}
