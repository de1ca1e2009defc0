package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/hitoshi/aquire/internal/model"
)

const upsertStorageValueSQL = `INSERT INTO app_storage (device_id, key, value, updated_at)
	 VALUES ($1, $2, $3, now())
	 ON CONFLICT (device_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

// PostgresAppStorageRepo はPostgreSQLを使用したAppStorage。
// 1デバイスの保存値はapp_storageテーブルのキーごとの行として保持する。
type PostgresAppStorageRepo struct {
	db *sql.DB
}

// NewPostgresAppStorageRepo はPostgresAppStorageRepoを生成する。
func NewPostgresAppStorageRepo(db *sql.DB) *PostgresAppStorageRepo {
	return &PostgresAppStorageRepo{db: db}
}

// Load はデバイスの保存値をすべて読み込む。
func (r *PostgresAppStorageRepo) Load(ctx context.Context, deviceID string) (*model.AppState, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value, updated_at FROM app_storage WHERE device_id = $1`,
		deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load app storage: %w", err)
	}
	defer rows.Close()

	values := map[string]string{}
	var updatedAt time.Time
	for rows.Next() {
		var (
			key, value string
			at         time.Time
		)
		if err := rows.Scan(&key, &value, &at); err != nil {
			return nil, fmt.Errorf("failed to scan app storage: %w", err)
		}
		values[key] = value
		if at.After(updatedAt) {
			updatedAt = at
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate app storage: %w", err)
	}

	return stateFromValues(deviceID, values, updatedAt), nil
}

// SetLoggedIn は認証フラグとidentityを同一トランザクションで保存する。
func (r *PostgresAppStorageRepo) SetLoggedIn(ctx context.Context, deviceID string, loggedIn bool, identity string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	values := loginValues(loggedIn, identity)
	for _, key := range []string{model.StorageKeyLoggedIn, model.StorageKeyUserEmail} {
		if _, err := tx.ExecContext(ctx, upsertStorageValueSQL, deviceID, key, values[key]); err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SetDebugOverlay はデバッグオーバーレイの表示フラグを保存する。
func (r *PostgresAppStorageRepo) SetDebugOverlay(ctx context.Context, deviceID string, enabled bool) error {
	_, err := r.db.ExecContext(ctx, upsertStorageValueSQL,
		deviceID, model.StorageKeyDebugOverlay, strconv.FormatBool(enabled),
	)
	if err != nil {
		return fmt.Errorf("failed to store debug overlay flag: %w", err)
	}
	return nil
}

// PurgeStale は最終更新がretentionより古いデバイスの行をすべて削除し、削除したデバイス数を返す。
// 1デバイスはキーごとに複数行を持つため、行数ではなく重複を除いたdevice_idを数える。
func (r *PostgresAppStorageRepo) PurgeStale(ctx context.Context, retention time.Duration) (int64, error) {
	interval := fmt.Sprintf("%d seconds", int64(retention.Seconds()))

	var deleted int64
	err := r.db.QueryRowContext(ctx,
		`WITH purged AS (
			DELETE FROM app_storage WHERE device_id IN (
				SELECT device_id FROM app_storage
				GROUP BY device_id
				HAVING max(updated_at) < now() - $1::interval
			)
			RETURNING device_id
		)
		SELECT count(DISTINCT device_id) FROM purged`,
		interval,
	).Scan(&deleted)
	if err != nil {
		return 0, fmt.Errorf("failed to purge app storage: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ AppStorage = (*PostgresAppStorageRepo)(nil)
