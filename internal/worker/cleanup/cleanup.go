// Package cleanup はデバイス保存値の自動削除ジョブを提供する。
// 保持期間（デフォルト90日）更新のないデバイスのAppStorageを
// 定期バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Purger は保持期間を超過したデバイスの保存値を削除する。
// repository.AppStorageの実装が満たす。
type Purger interface {
	PurgeStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CleanupJob は保持期間を超過したデバイス保存値の削除ジョブ。
// 冪等な削除処理のため何度実行してもよい。
type CleanupJob struct {
	storage       Purger
	logger        *slog.Logger
	RetentionDays int // 保存値の保持日数（デフォルト: 90）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は90日。
func NewCleanupJob(storage Purger, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		storage:       storage,
		logger:        logger,
		RetentionDays: 90,
	}
}

// Run は保持期間を超過したデバイスの保存値を削除する。
// 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	retention := time.Duration(j.RetentionDays) * 24 * time.Hour
	deletedCount, err := j.storage.PurgeStale(ctx, retention)
	if err != nil {
		j.logger.Error("app storage cleanup failed",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("purge stale app storage: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("app storage cleanup completed",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// RunEvery はintervalごとにRunを実行し、ctxがキャンセルされるまでブロックする。
// 起動直後に1回実行する。個々の実行エラーはログに記録して継続する。
// intervalが0以下の場合は24時間とする。
func (j *CleanupJob) RunEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	_ = j.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
