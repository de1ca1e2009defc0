// Package authgate は未認証フローと認証済みフローを切り替えるルートゲートを提供する。
//
// ゲートが持つのは「認証済みか」という条件と、下流に渡すidentity文字列だけである。
// 認証情報の検証はログイン側、永続化はストレージ側の責務で、ここでは扱わない。
package authgate

import (
	"context"
	"fmt"

	"github.com/hitoshi/aquire/internal/model"
)

// SubtreeKind はマウントするサブツリーの種別。
type SubtreeKind string

const (
	SubtreeLogin SubtreeKind = "login"
	SubtreeMain  SubtreeKind = "main"
)

// LoginFunc はログイン成功時に呼ばれるコールバック。identityの形式は検証しない。
type LoginFunc func(identity string) error

// Subtree はゲートが選んだサブツリー。
type Subtree struct {
	Kind SubtreeKind
	// Identity はメインサブツリーでのみ設定され、保存値がそのまま渡される。
	Identity string

	onLogin LoginFunc
}

// Authenticated はメインサブツリーかどうかを返す。
func (s Subtree) Authenticated() bool {
	return s.Kind == SubtreeMain
}

// Accept はログインサブツリーでの認証成功を通知する。
// メインサブツリーに対して呼んだ場合は何もしない。
func (s Subtree) Accept(identity string) error {
	if s.Kind != SubtreeLogin || s.onLogin == nil {
		return nil
	}
	return s.onLogin(identity)
}

// Route はフラグに応じてサブツリーを選ぶ。
// isAuthenticatedがfalseならidentityの値に関係なく必ずログインサブツリーを返す。
func Route(isAuthenticated bool, identity string, onLogin LoginFunc) Subtree {
	if !isAuthenticated {
		return Subtree{Kind: SubtreeLogin, onLogin: onLogin}
	}
	return Subtree{Kind: SubtreeMain, Identity: identity}
}

// Storage はゲートが読み書きする永続化済みフラグへのアクセサ。
// repository.AppStorageの部分集合として定義する。
type Storage interface {
	Load(ctx context.Context, deviceID string) (*model.AppState, error)
	SetLoggedIn(ctx context.Context, deviceID string, loggedIn bool, identity string) error
}

// Gate はデバイスの永続化フラグを読み込み、Routeへ渡す。
type Gate struct {
	storage Storage
}

// New はGateを生成する。
func New(storage Storage) *Gate {
	return &Gate{storage: storage}
}

// Mount はデバイスの状態を1回読み込んでサブツリーを選ぶ。
// ログインサブツリーのAcceptは、認証フラグとidentityを保存する。
func (g *Gate) Mount(ctx context.Context, deviceID string) (Subtree, *model.AppState, error) {
	state, err := g.storage.Load(ctx, deviceID)
	if err != nil {
		return Subtree{}, nil, fmt.Errorf("failed to load app state: %w", err)
	}

	onLogin := func(identity string) error {
		if err := g.storage.SetLoggedIn(ctx, deviceID, true, identity); err != nil {
			return fmt.Errorf("failed to store login: %w", err)
		}
		return nil
	}

	return Route(state.LoggedIn, state.Identity, onLogin), state, nil
}

// Logout は認証フラグを下ろす。identityは空にする。
func (g *Gate) Logout(ctx context.Context, deviceID string) error {
	if err := g.storage.SetLoggedIn(ctx, deviceID, false, ""); err != nil {
		return fmt.Errorf("failed to store logout: %w", err)
	}
	return nil
}
