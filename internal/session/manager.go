package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/weatherplus/pkg/apperr"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout はネットワーク呼び出し1件あたりの既定のタイムアウト。
const DefaultTimeout = 10 * time.Second

// Status はセッションの状態。
type Status int

const (
	// StatusUnknown は起動直後でトークンを検証していない状態。
	StatusUnknown Status = iota
	// StatusVerifying は保存済みトークンを検証している状態。
	StatusVerifying
	// StatusAuthenticated は有効なトークンを保持している状態。
	StatusAuthenticated
	// StatusUnauthenticated はトークンを保持していない状態。
	StatusUnauthenticated
)

// String は状態名を返す。
func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "Unknown"
	case StatusVerifying:
		return "Verifying"
	case StatusAuthenticated:
		return "Authenticated"
	case StatusUnauthenticated:
		return "Unauthenticated"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// resolved は検証が完了した状態かどうかを返す。
func (s Status) resolved() bool {
	return s == StatusAuthenticated || s == StatusUnauthenticated
}

// Manager はクライアントのセッション状態を管理する。
// 状態を変更する操作は直列に実行され、起動時の検証は同時に何度呼ばれても1回だけ行う。
type Manager struct {
	store   TokenStore
	api     AuthAPI
	timeout time.Duration

	// startGroup は同時に呼ばれたStartをまとめる。
	startGroup singleflight.Group
	// opMu は状態を変更する操作を直列化する。
	opMu sync.Mutex

	// mu はstatusとtokenを保護する。
	mu     sync.RWMutex
	status Status
	token  string
}

// Option はManagerの設定を変更する。
type Option func(*Manager)

// WithTimeout は認証サービス呼び出しのタイムアウトを設定する。
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewManager はManagerを生成する。初期状態はUnknown。
func NewManager(store TokenStore, api AuthAPI, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		api:     api,
		timeout: DefaultTimeout,
		status:  StatusUnknown,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status は現在の状態を返す。
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Token はAuthenticatedの場合に保持しているトークンを返す。それ以外は空文字列。
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status != StatusAuthenticated {
		return ""
	}
	return m.token
}

// setState は状態とトークンを更新する。
func (m *Manager) setState(status Status, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.token = token
}

// Start は保存済みトークンを検証してセッション状態を確定する。
// トークンが無ければネットワークを使わずにUnauthenticatedになる。
// 検証で無効と判定された場合、または検証できなかった場合はトークンを破棄する。
// 同時に呼ばれた場合は1回の検証結果を共有し、確定後は再検証しない。
func (m *Manager) Start(ctx context.Context) Status {
	v, _, _ := m.startGroup.Do("start", func() (any, error) {
		return m.start(ctx), nil
	})
	return v.(Status)
}

// start はStartの本体。
func (m *Manager) start(ctx context.Context) Status {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if status := m.Status(); status.resolved() {
		return status
	}
	m.setState(StatusVerifying, "")

	token, err := m.store.Get(ctx)
	if err != nil {
		log.Printf("保存済みトークンの読み込みに失敗: %v", err)
		return m.signOutLocked(ctx)
	}
	if token == "" {
		m.setState(StatusUnauthenticated, "")
		return StatusUnauthenticated
	}

	verifyCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	result, err := m.api.Verify(verifyCtx, token)
	if err != nil {
		log.Printf("トークンの検証に失敗したため破棄します: %v", err)
		return m.signOutLocked(ctx)
	}
	if !result.Valid {
		return m.signOutLocked(ctx)
	}

	m.setState(StatusAuthenticated, token)
	return StatusAuthenticated
}

// Login は認証サービスでログインし、成功した場合はトークンを保存してAuthenticatedになる。
// 失敗した場合は状態を変えずにエラーをそのまま返す。
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	token, err := m.api.Login(callCtx, email, password)
	if err != nil {
		return err
	}
	return m.signInLocked(ctx, token)
}

// Register は3項目すべてが空でないことを確認してから認証サービスでユーザーを登録し、
// 成功した場合はトークンを保存してAuthenticatedになる。
// ローカルの検証に失敗した場合はネットワークを使わずにValidationErrorを返す。
func (m *Manager) Register(ctx context.Context, email, password, name string) error {
	var missing []string
	if strings.TrimSpace(email) == "" {
		missing = append(missing, "メールアドレス")
	}
	if password == "" {
		missing = append(missing, "パスワード")
	}
	if strings.TrimSpace(name) == "" {
		missing = append(missing, "名前")
	}
	if len(missing) > 0 {
		return apperr.Validation(strings.Join(missing, "、") + "を入力してください")
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	token, err := m.api.Register(callCtx, email, password, name)
	if err != nil {
		return err
	}
	return m.signInLocked(ctx, token)
}

// Logout は保存済みトークンを必ず破棄してUnauthenticatedになる。
// 削除に失敗した場合は空の値で上書きし、それも失敗した場合のみエラーを返す。
// エラーを返す場合でも状態はUnauthenticatedになっている。
func (m *Manager) Logout(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.setState(StatusUnauthenticated, "")
	return m.clearStoreLocked(ctx)
}

// signInLocked はトークンを保存してAuthenticatedにする。opMuを保持して呼ぶ。
func (m *Manager) signInLocked(ctx context.Context, token string) error {
	if err := m.store.Set(context.WithoutCancel(ctx), token); err != nil {
		return fmt.Errorf("トークンの保存に失敗: %w", err)
	}
	m.setState(StatusAuthenticated, token)
	return nil
}

// signOutLocked はトークンを破棄してUnauthenticatedにする。opMuを保持して呼ぶ。
func (m *Manager) signOutLocked(ctx context.Context) Status {
	m.setState(StatusUnauthenticated, "")
	if err := m.clearStoreLocked(ctx); err != nil {
		log.Printf("保存済みトークンの破棄に失敗: %v", err)
	}
	return StatusUnauthenticated
}

// clearStoreLocked は保存済みトークンを破棄する。呼び出し元のキャンセルに関わらず実行する。
func (m *Manager) clearStoreLocked(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	deleteErr := m.store.Delete(ctx)
	if deleteErr == nil {
		return nil
	}
	if err := m.store.Set(ctx, ""); err != nil {
		return errors.Join(deleteErr, err)
	}
	return nil
}
