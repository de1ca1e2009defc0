package repository

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/hitoshi/aquire/internal/model"
)

type deviceRecord struct {
	values    map[string]string
	updatedAt time.Time
}

// MemoryAppStorage はプロセス内メモリにデバイスの状態を保持するAppStorage。
// DATABASE_URLが未設定の場合に使用する。プロセスを再起動すると失われる。
type MemoryAppStorage struct {
	mu    sync.Mutex
	items *cache.Cache
	now   func() time.Time
}

// NewMemoryAppStorage はMemoryAppStorageを生成する。
// 保存値は期限切れにならず、PurgeStaleでのみ削除される。
func NewMemoryAppStorage() *MemoryAppStorage {
	return &MemoryAppStorage{
		items: cache.New(cache.NoExpiration, 0),
		now:   time.Now,
	}
}

// Load はデバイスの状態を返す。
func (s *MemoryAppStorage) Load(ctx context.Context, deviceID string) (*model.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items.Get(deviceID)
	if !ok {
		return &model.AppState{DeviceID: deviceID}, nil
	}
	rec := v.(*deviceRecord)
	return stateFromValues(deviceID, rec.values, rec.updatedAt), nil
}

// SetLoggedIn は認証フラグとidentityを保存する。
func (s *MemoryAppStorage) SetLoggedIn(ctx context.Context, deviceID string, loggedIn bool, identity string) error {
	s.write(deviceID, loginValues(loggedIn, identity))
	return nil
}

// SetDebugOverlay はデバッグオーバーレイの表示フラグを保存する。
func (s *MemoryAppStorage) SetDebugOverlay(ctx context.Context, deviceID string, enabled bool) error {
	s.write(deviceID, map[string]string{
		model.StorageKeyDebugOverlay: strconv.FormatBool(enabled),
	})
	return nil
}

func (s *MemoryAppStorage) write(deviceID string, values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &deviceRecord{values: map[string]string{}}
	if v, ok := s.items.Get(deviceID); ok {
		prev := v.(*deviceRecord)
		for k, val := range prev.values {
			rec.values[k] = val
		}
	}
	for k, val := range values {
		rec.values[k] = val
	}
	rec.updatedAt = s.now()
	s.items.Set(deviceID, rec, cache.NoExpiration)
}

// PurgeStale はretentionより長く更新のないデバイスを削除する。
func (s *MemoryAppStorage) PurgeStale(ctx context.Context, retention time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-retention)
	var purged int64
	for deviceID, item := range s.items.Items() {
		rec := item.Object.(*deviceRecord)
		if rec.updatedAt.Before(cutoff) {
			s.items.Delete(deviceID)
			purged++
		}
	}
	return purged, nil
}

// compile-time interface check
var _ AppStorage = (*MemoryAppStorage)(nil)
