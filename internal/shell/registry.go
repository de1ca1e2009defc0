package shell

import (
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/hitoshi/aquire/internal/platform"
)

// RegistryConfig はRegistryの設定。
type RegistryConfig struct {
	// IdleTimeout は操作のないルートをアンマウントするまでの時間。
	IdleTimeout time.Duration
	// CleanupInterval は期限切れルートの掃除間隔。
	CleanupInterval time.Duration
	// TransitionDuration はカプセルバーの遷移アニメーションの長さ。
	TransitionDuration time.Duration
}

// DefaultRegistryConfig はデフォルト設定を返す。
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		IdleTimeout:     30 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// Registry はデバイスIDごとにマウント中のRootを保持する。
// ルートはメモリ上にだけ存在し、ログアウトまたはアイドルタイムアウトで破棄される。
type Registry struct {
	config   RegistryConfig
	observer Observer
	logger   *slog.Logger

	mu    sync.Mutex
	roots *cache.Cache
}

// NewRegistry はRegistryを生成する。observerはnilでもよい。
func NewRegistry(config RegistryConfig, observer Observer, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultRegistryConfig().IdleTimeout
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultRegistryConfig().CleanupInterval
	}

	reg := &Registry{
		config:   config,
		observer: observer,
		logger:   logger,
		roots:    cache.New(config.IdleTimeout, config.CleanupInterval),
	}
	reg.roots.OnEvicted(func(deviceID string, v interface{}) {
		root := v.(*Root)
		root.close()
		if reg.observer != nil {
			reg.observer.RecordRootUnmounted()
		}
		reg.logger.Info("root unmounted",
			slog.String("device_id", deviceID),
		)
	})
	return reg
}

// Mount はデバイスのルートを返す。
// 同じidentityでマウント済みならそれを返し、未マウントまたはidentityが異なる場合は
// resolveでプラットフォームを1回だけ解決して新しいルートを生成する。
func (reg *Registry) Mount(deviceID, identity string, resolve func() platform.Info) *Root {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if root, ok := reg.lookup(deviceID); ok {
		if root.identity == identity {
			reg.roots.Set(deviceID, root, cache.DefaultExpiration)
			return root
		}
		// identityが変わった場合は古いルートを破棄する
		reg.roots.Delete(deviceID)
	}

	info := resolve()
	root := NewRoot(Options{
		DeviceID:           deviceID,
		Identity:           identity,
		Platform:           info,
		Observer:           reg.observer,
		Logger:             reg.logger,
		TransitionDuration: reg.config.TransitionDuration,
	})
	reg.roots.Set(deviceID, root, cache.DefaultExpiration)

	if reg.observer != nil {
		reg.observer.RecordRootMounted()
	}
	reg.logger.Info("root mounted",
		slog.String("device_id", deviceID),
		slog.String("platform", info.String()),
		slog.String("strategy", string(root.Strategy())),
		slog.String("preview", root.sandbox.Capability().Name()),
	)
	return root
}

// Get はマウント済みのルートを返す。未マウントの場合はfalse。
func (reg *Registry) Get(deviceID string) (*Root, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	root, ok := reg.lookup(deviceID)
	if !ok {
		return nil, false
	}
	reg.roots.Set(deviceID, root, cache.DefaultExpiration)
	return root, true
}

// lookup は有効なルートを返す。reg.muを保持して呼ぶ。
// アイドルタイムアウトを過ぎてまだ掃除されていないエントリはここで削除し、
// OnEvictedでアンマウントさせる。Setで上書きするとOnEvictedが呼ばれないため。
func (reg *Registry) lookup(deviceID string) (*Root, bool) {
	if v, ok := reg.roots.Get(deviceID); ok {
		return v.(*Root), true
	}
	reg.roots.Delete(deviceID)
	return nil, false
}

// Unmount はデバイスのルートを破棄する。未マウントの場合は何もしない。
func (reg *Registry) Unmount(deviceID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.roots.Delete(deviceID)
}

// Count はマウント中のルート数を返す。
func (reg *Registry) Count() int {
	return reg.roots.ItemCount()
}
