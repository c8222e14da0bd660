package config

import (
	"fmt"
	"maps"
	"net/url"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultRoutes は設定が無い場合に使用するルーティングテーブル。
var defaultRoutes = map[string]string{
	"user":    "http://localhost:3004/user",
	"favoris": "http://localhost:3005/favoris",
}

// RouteTable は論理サービス名から上流ベースURLへの不変な対応表。
// 生成後に変更する手段を持たないため、複数のリクエストから並行に参照してよい。
type RouteTable struct {
	routes map[string]string
}

// NewRouteTable は名前とURLの組からRouteTableを生成する。
// 名前が空またはスラッシュを含む場合、URLが絶対http(s)URLでない場合はエラー。
func NewRouteTable(routes map[string]string) (RouteTable, error) {
	table := make(map[string]string, len(routes))
	for name, raw := range routes {
		if name == "" || strings.Contains(name, "/") {
			return RouteTable{}, fmt.Errorf("サービス名が不正です: %q", name)
		}
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			return RouteTable{}, fmt.Errorf("サービス %s のURLが不正です: %w", name, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return RouteTable{}, fmt.Errorf("サービス %s のURLは絶対http(s)URLである必要があります: %q", name, raw)
		}
		if u.RawQuery != "" || u.Fragment != "" {
			return RouteTable{}, fmt.Errorf("サービス %s のURLにクエリやフラグメントは指定できません: %q", name, raw)
		}
		table[name] = strings.TrimSuffix(u.String(), "/")
	}
	return RouteTable{routes: table}, nil
}

// Lookup は論理サービス名に完全一致する上流ベースURLを返す。
func (t RouteTable) Lookup(name string) (string, bool) {
	base, ok := t.routes[name]
	return base, ok
}

// Names は登録されているサービス名を昇順で返す。
func (t RouteTable) Names() []string {
	return slices.Sorted(maps.Keys(t.routes))
}

// Len は登録されているサービス数を返す。
func (t RouteTable) Len() int {
	return len(t.routes)
}

// routesFile はROUTES_FILEで指定するYAMLファイルの構造。
type routesFile struct {
	// Routes は論理サービス名から上流ベースURLへの対応。
	Routes map[string]string `yaml:"routes"`
}

// loadRoutes はROUTES_FILE、GATEWAY_ROUTES、既定値の順にルーティングテーブルを決定する。
func loadRoutes() (RouteTable, error) {
	if path := strings.TrimSpace(os.Getenv("ROUTES_FILE")); path != "" {
		return LoadRoutesFile(path)
	}
	if raw := strings.TrimSpace(os.Getenv("GATEWAY_ROUTES")); raw != "" {
		return ParseRoutes(raw)
	}
	return NewRouteTable(defaultRoutes)
}

// LoadRoutesFile はYAMLファイルからルーティングテーブルを読み込む。
func LoadRoutesFile(path string) (RouteTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RouteTable{}, fmt.Errorf("ルーティング設定ファイルの読み込みに失敗: %w", err)
	}

	var f routesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return RouteTable{}, fmt.Errorf("ルーティング設定ファイルのパースに失敗: %w", err)
	}
	if len(f.Routes) == 0 {
		return RouteTable{}, fmt.Errorf("ルーティング設定ファイルにroutesがありません: %s", path)
	}
	return NewRouteTable(f.Routes)
}

// ParseRoutes は "name=url,name=url" 形式の文字列からルーティングテーブルを生成する。
func ParseRoutes(raw string) (RouteTable, error) {
	routes := make(map[string]string)
	for _, pair := range splitCSV(raw) {
		name, target, ok := strings.Cut(pair, "=")
		if !ok {
			return RouteTable{}, fmt.Errorf("ルーティング指定が不正です: %q", pair)
		}
		name = strings.TrimSpace(name)
		if _, dup := routes[name]; dup {
			return RouteTable{}, fmt.Errorf("サービス名が重複しています: %q", name)
		}
		routes[name] = strings.TrimSpace(target)
	}
	return NewRouteTable(routes)
}
