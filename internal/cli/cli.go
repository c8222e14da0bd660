package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nao1215/weatherplus/internal/session"
	"github.com/nao1215/weatherplus/pkg/apperr"
	"github.com/spf13/cobra"
)

// App はweatherctlのコマンドが共有する依存関係。
type App struct {
	manager   *session.Manager
	favorites *session.FavoritesClient
	in        *bufio.Reader
}

// NewApp はAppを生成する。inは対話入力の読み込み元。
func NewApp(manager *session.Manager, favorites *session.FavoritesClient, in io.Reader) *App {
	return &App{
		manager:   manager,
		favorites: favorites,
		in:        bufio.NewReader(in),
	}
}

// NewRootCommand はweatherctlのルートコマンドを生成する。
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "weatherctl",
		Short:         "weatherplusのクライアント",
		Long:          "weatherplusのGatewayに接続し、ログインとお気に入り都市を管理する。",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			app.manager.Start(cmd.Context())
		},
	}

	root.AddCommand(
		newStatusCommand(app),
		newLoginCommand(app),
		newRegisterCommand(app),
		newLogoutCommand(app),
		newFavoritesCommand(app),
	)
	return root
}

// requireAuth はAuthenticatedでない場合にAuthErrorを返す。
func (a *App) requireAuth() error {
	if a.manager.Status() != session.StatusAuthenticated {
		return apperr.Auth("ログインしていません。weatherctl login を実行してください")
	}
	return nil
}

func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "セッションの状態を表示する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), app.manager.Status())
			return nil
		},
	}
}

func newLoginCommand(app *App) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "メールアドレスとパスワードでログインする",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			var err error
			if email == "" {
				if email, err = promptLine(app.in, out, "メールアドレス"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword(app.in, out); err != nil {
					return err
				}
			}

			if err := app.manager.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			fmt.Fprintln(out, "ログインしました")
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "メールアドレス")
	cmd.Flags().StringVarP(&password, "password", "p", "", "パスワード（省略時は入力を求める）")
	return cmd
}

func newRegisterCommand(app *App) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "ユーザーを登録してログインする",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if password == "" && email != "" && name != "" {
				var err error
				if password, err = promptPassword(app.in, out); err != nil {
					return err
				}
			}

			if err := app.manager.Register(cmd.Context(), email, password, name); err != nil {
				return err
			}
			fmt.Fprintln(out, "登録しました")
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "メールアドレス")
	cmd.Flags().StringVarP(&password, "password", "p", "", "パスワード（省略時は入力を求める）")
	cmd.Flags().StringVarP(&name, "name", "n", "", "表示名")
	return cmd
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "保存済みのトークンを破棄する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.manager.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ログアウトしました")
			return nil
		},
	}
}

func newFavoritesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "お気に入り都市を管理する",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app.manager.Start(cmd.Context())
			return app.requireAuth()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "お気に入り都市の一覧を表示する",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				favorites, err := app.favorites.List(cmd.Context())
				if err != nil {
					return err
				}
				return printFavorites(cmd.OutOrStdout(), favorites)
			},
		},
		&cobra.Command{
			Use:   "add <id_ville> <nom_ville>",
			Short: "お気に入り都市を追加する",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				favorite, err := app.favorites.Add(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) を追加しました\n", favorite.CityName, favorite.CityKey)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <id_ville>",
			Short: "お気に入り都市を削除する",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				favorite, err := app.favorites.Remove(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) を削除しました\n", favorite.CityName, favorite.CityKey)
				return nil
			},
		},
	)
	return cmd
}

// printFavorites はお気に入りを表形式で出力する。
func printFavorites(w io.Writer, favorites []session.Favorite) error {
	if len(favorites) == 0 {
		_, err := fmt.Fprintln(w, "お気に入りはありません")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID_VILLE\tNOM_VILLE\tCREATED_AT")
	for _, f := range favorites {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.CityKey, f.CityName, f.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// Execute はルートコマンドを実行する。
func Execute(ctx context.Context, app *App, args []string, out, errOut io.Writer) error {
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}
