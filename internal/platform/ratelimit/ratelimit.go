// Package ratelimit は固定ウィンドウ方式のレートリミッターとginミドルウェアを提供します。
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrBackendUnavailable はカウンターの保存先に到達できない場合に返されます。
var ErrBackendUnavailable = errors.New("ratelimit: backend unavailable")

// Config はリミッターの設定です。windowごとにlimit回まで許可します。
type Config struct {
	Limit  int
	Window time.Duration
}

// Limiter はキーごとの試行回数を数え、上限を超えたかを判定します。
type Limiter interface {
	// Allow は試行を1回記録し、上限内であればtrueを返します。
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter はRedisのINCR/EXPIREによる固定ウィンドウのリミッターです。
// 複数インスタンスで同じカウンターを共有できます。
type RedisLimiter struct {
	client redis.Cmdable
	cfg    Config
	prefix string
}

// NewRedisLimiter はRedisLimiterを生成します。
func NewRedisLimiter(client redis.Cmdable, cfg Config, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{client: client, cfg: cfg, prefix: prefix}
}

// Allow は試行回数をインクリメントし、上限内かどうかを返します。
// INCRとEXPIRE NXを1つのトランザクションで送るため、TTLのないキーが残ることはありません。
// TTLは未設定のときだけ付与されるので、ウィンドウは延長されません。
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := fmt.Sprintf("%s:%s", l.prefix, key)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.cfg.Window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return incr.Val() <= int64(l.cfg.Limit), nil
}

// MemoryLimiter はプロセス内で動作する固定ウィンドウのリミッターです。
// Redisが利用できない単一インスタンス構成で使用します。
type MemoryLimiter struct {
	mu        sync.Mutex
	cfg       Config
	now       func() time.Time
	windows   map[string]*window
	lastSweep time.Time
}

type window struct {
	count     int
	lastReset time.Time
}

// NewMemoryLimiter はMemoryLimiterを生成します。
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{cfg: cfg, now: time.Now, windows: make(map[string]*window)}
}

// Allow は試行回数をインクリメントし、上限内かどうかを返します。
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	// interval を過ぎたらカウントリセット
	if !ok || now.Sub(w.lastReset) >= l.cfg.Window {
		w = &window{lastReset: now}
		l.windows[key] = w
	}
	// 期限切れの掃除はウィンドウ1回分につき1度だけ
	if now.Sub(l.lastSweep) >= l.cfg.Window {
		l.sweep(now)
		l.lastSweep = now
	}
	w.count++
	return w.count <= l.cfg.Limit, nil
}

// sweep は期限切れのウィンドウを削除します。呼び出し側でロックを保持している必要があります。
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.lastReset) >= l.cfg.Window {
			delete(l.windows, k)
		}
	}
}
