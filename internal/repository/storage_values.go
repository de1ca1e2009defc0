package repository

import (
	"strconv"
	"time"

	"github.com/hitoshi/aquire/internal/model"
)

// stateFromValues はキーと文字列値の組からAppStateを組み立てる。
// 解釈できない真偽値はfalseとして扱う。
func stateFromValues(deviceID string, values map[string]string, updatedAt time.Time) *model.AppState {
	state := &model.AppState{
		DeviceID:  deviceID,
		Identity:  values[model.StorageKeyUserEmail],
		UpdatedAt: updatedAt,
	}
	state.LoggedIn, _ = strconv.ParseBool(values[model.StorageKeyLoggedIn])
	state.DebugOverlayEnabled, _ = strconv.ParseBool(values[model.StorageKeyDebugOverlay])
	return state
}

// loginValues はSetLoggedInで書き込むキーと値の組を返す。
func loginValues(loggedIn bool, identity string) map[string]string {
	return map[string]string{
		model.StorageKeyLoggedIn:  strconv.FormatBool(loggedIn),
		model.StorageKeyUserEmail: identity,
	}
}
