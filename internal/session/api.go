package session

import (
	"context"
	"errors"

	"github.com/nao1215/weatherplus/pkg/authtoken"
	"github.com/nao1215/weatherplus/pkg/httpclient"
)

// AuthAPI は認証サービスの呼び出しを抽象化する。
type AuthAPI interface {
	// Login は認証してトークンを返す。
	Login(ctx context.Context, email, password string) (string, error)
	// Register はユーザーを登録してトークンを返す。
	Register(ctx context.Context, email, password, name string) (string, error)
	// Verify はトークンを検証する。
	Verify(ctx context.Context, token string) (authtoken.Result, error)
}

// errEmptyToken はレスポンスにトークンが含まれていない場合のエラー。
var errEmptyToken = errors.New("レスポンスにトークンが含まれていません")

// HTTPAuthAPI はGateway経由で認証サービスを呼び出すAuthAPI。
type HTTPAuthAPI struct {
	client *httpclient.Client
}

// NewHTTPAuthAPI はHTTPAuthAPIを生成する。clientのベースURLはGatewayを指す。
func NewHTTPAuthAPI(client *httpclient.Client) *HTTPAuthAPI {
	return &HTTPAuthAPI{client: client}
}

// credentials はログインと登録のリクエストボディ。
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// tokenResponse はトークンを含むレスポンスボディ。
type tokenResponse struct {
	Token string `json:"token"`
}

// Login はPOST /user/login を呼び出す。
// 失敗時はサーバーのメッセージをそのまま持つhttpclient.StatusErrorを返す。
func (a *HTTPAuthAPI) Login(ctx context.Context, email, password string) (string, error) {
	var resp tokenResponse
	if err := a.client.PostJSON(ctx, "/user/login", credentials{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errEmptyToken
	}
	return resp.Token, nil
}

// Register はPOST /user/register を呼び出す。
func (a *HTTPAuthAPI) Register(ctx context.Context, email, password, name string) (string, error) {
	var resp tokenResponse
	body := credentials{Email: email, Password: password, Name: name}
	if err := a.client.PostJSON(ctx, "/user/register", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errEmptyToken
	}
	return resp.Token, nil
}

// Verify はPOST /user/verify をBearerトークン付きで呼び出す。
func (a *HTTPAuthAPI) Verify(ctx context.Context, token string) (authtoken.Result, error) {
	var result authtoken.Result
	if err := a.client.PostJSON(httpclient.WithBearerToken(ctx, token), "/user/verify", nil, &result); err != nil {
		return authtoken.Result{}, err
	}
	return result, nil
}
