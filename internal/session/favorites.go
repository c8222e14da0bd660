package session

import (
	"context"
	"net/url"
	"time"

	"github.com/nao1215/weatherplus/pkg/apperr"
	"github.com/nao1215/weatherplus/pkg/httpclient"
)

// Favorite はお気に入りサービスが返すお気に入り都市。
type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"id_user"`
	CityKey   string    `json:"id_ville"`
	CityName  string    `json:"nom_ville"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenSource は現在のトークンを返す。*Manager が満たす。
type TokenSource interface {
	Token() string
}

// FavoritesClient はGateway経由でお気に入りサービスを呼び出す。
type FavoritesClient struct {
	client *httpclient.Client
	tokens TokenSource
}

// NewFavoritesClient はFavoritesClientを生成する。
func NewFavoritesClient(client *httpclient.Client, tokens TokenSource) *FavoritesClient {
	return &FavoritesClient{client: client, tokens: tokens}
}

// authorized はトークンを付与したコンテキストを返す。未ログインの場合はAuthError。
func (f *FavoritesClient) authorized(ctx context.Context) (context.Context, error) {
	token := f.tokens.Token()
	if token == "" {
		return nil, apperr.Auth("ログインしていません")
	}
	return httpclient.WithBearerToken(ctx, token), nil
}

// List はGET /favoris/list を呼び出す。
func (f *FavoritesClient) List(ctx context.Context) ([]Favorite, error) {
	ctx, err := f.authorized(ctx)
	if err != nil {
		return nil, err
	}
	var favorites []Favorite
	if err := f.client.GetJSON(ctx, "/favoris/list", &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

// Add はPOST /favoris/new を呼び出す。
func (f *FavoritesClient) Add(ctx context.Context, cityKey, cityName string) (*Favorite, error) {
	ctx, err := f.authorized(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]string{"id_ville": cityKey, "nom_ville": cityName}
	var favorite Favorite
	if err := f.client.PostJSON(ctx, "/favoris/new", body, &favorite); err != nil {
		return nil, err
	}
	return &favorite, nil
}

// Remove はDELETE /favoris/delete/:id_ville を呼び出し、削除したお気に入りを返す。
func (f *FavoritesClient) Remove(ctx context.Context, cityKey string) (*Favorite, error) {
	ctx, err := f.authorized(ctx)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Favorite Favorite `json:"favoris"`
	}
	if err := f.client.DeleteJSON(ctx, "/favoris/delete/"+url.PathEscape(cityKey), &resp); err != nil {
		return nil, err
	}
	return &resp.Favorite, nil
}
