// Package model はドメインモデルを定義する。
package model

import "time"

// AppStorageキー。デバイスごとに永続化される。
const (
	StorageKeyLoggedIn     = "Aquire_isLoggedIn"
	StorageKeyUserEmail    = "Aquire_userEmail"
	StorageKeyDebugOverlay = "Aquire_debugOverlayEnabled"
)

// AppState はデバイスに永続化されたフラグの読み取り結果。
// ルートのマウント時に1回読み込まれ、シェルのコンポーネントへ明示的に渡される。
type AppState struct {
	DeviceID            string
	LoggedIn            bool
	Identity            string
	DebugOverlayEnabled bool
	UpdatedAt           time.Time
}
