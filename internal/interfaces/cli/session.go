package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhoicas/portal-movimiento/internal/application/portal"
	"github.com/jhoicas/portal-movimiento/internal/domain"
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
	"github.com/jhoicas/portal-movimiento/internal/infrastructure/backend"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Iniciar sesión y navegar al sector (o listar los sectores)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				v, err := a.readLine("email: ")
				if err != nil {
					return err
				}
				email = strings.TrimSpace(v)
			}
			if password == "" {
				v, err := a.readPassword("password: ")
				if err != nil {
					return err
				}
				password = v
			}
			store, err := a.store()
			if err != nil {
				return err
			}
			client, err := a.client(store)
			if err != nil {
				return err
			}
			env, err := a.environment()
			if err != nil {
				return err
			}
			flow := portal.LoginFlow{Auth: client, Store: store, Resolver: a.resolver(), Navigator: a.navigator()}
			out, err := flow.Submit(cmd.Context(), email, password, env)
			if err != nil {
				var apiErr *backend.APIError
				switch {
				case errors.Is(err, domain.ErrNoSectors):
					return err
				case errors.As(err, &apiErr):
					return errors.New(apiErr.Detail)
				}
				return err
			}
			a.log.Info().Str("email", email).Int("sectores", len(out.Session.Sectors)).Msg("login")
			if out.Kind == portal.OutcomeSelect {
				fmt.Fprintf(a.stdout, "Hola %s, elegí un sector:\n", out.Session.UserName)
				for _, opt := range portal.SectorOptions(out.Sectors, nil) {
					fmt.Fprintf(a.stdout, "  %-12s %s\n", opt.Sector, opt.Description)
				}
				fmt.Fprintln(a.stdout, "Usá: portal choose <sector>")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "email del usuario")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (si falta se lee de la entrada)")
	return cmd
}

func newChooseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "choose <sector>",
		Short: "Navegar a uno de los sectores de la sesión",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			env, err := a.environment()
			if err != nil {
				return err
			}
			flow := portal.LoginFlow{Store: store, Resolver: a.resolver(), Navigator: a.navigator()}
			_, err = flow.Choose(cmd.Context(), strings.TrimSpace(args[0]), env)
			return err
		},
	}
}

func newOpenCmd(a *app) *cobra.Command {
	var keepParams bool
	cmd := &cobra.Command{
		Use:   "open <url>",
		Short: "Tomar el ?token= de una URL de traspaso y dejarlo como sesión activa",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			page, err := url.Parse(args[0])
			if err != nil {
				return fmt.Errorf("URL inválida: %w", err)
			}
			store, err := a.store()
			if err != nil {
				return err
			}
			history := portal.HistoryFunc(func(u string) error {
				_, err := fmt.Fprintf(a.stdout, "URL limpia: %s\n", u)
				return err
			})
			policy := portal.BootstrapPolicy{KeepOtherParams: keepParams || a.cfg.Portal.KeepQueryParams}
			res, err := portal.Bootstrap(store, history, page, policy)
			if err != nil {
				return err
			}
			if !res.Captured {
				fmt.Fprintln(a.stdout, "la URL no trae token; la sesión no cambia")
			}
			d := portal.Guard{Store: store, RootOrigin: a.cfg.Portal.RootOrigin}.Check()
			if !d.Allowed {
				return a.navigator().Navigate(d.RedirectURL)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&keepParams, "keep-params", false, "conservar los demás parámetros de la URL")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Mostrar la sesión guardada",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			d := portal.Guard{Store: store, RootOrigin: a.cfg.Portal.RootOrigin}.Check()
			if !d.Allowed {
				fmt.Fprintln(a.stdout, "sin sesión")
				return a.navigator().Navigate(d.RedirectURL)
			}
			sess, err := portal.LoadSession(store)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "usuario:  %s\n", sess.UserName)
			fmt.Fprintf(a.stdout, "rol:      %s\n", sess.Role)
			fmt.Fprintf(a.stdout, "accesos:  %s\n", strings.Join(sess.Sectors, ", "))
			fmt.Fprintf(a.stdout, "archivo:  %s\n", store.Path())
			return nil
		},
	}
}

func newMeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Consultar al backend los datos del token actual",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			client, err := a.client(store)
			if err != nil {
				return err
			}
			me, err := client.Me(cmd.Context())
			if err != nil {
				if errors.Is(err, domain.ErrSessionExpired) {
					return errors.New("sesión vencida: volvé a iniciar sesión")
				}
				return err
			}
			fmt.Fprintf(a.stdout, "%s (%s) accesos: %s\n", me.Name, me.Role, strings.Join(me.Accesos, ", "))
			return nil
		},
	}
}

func newRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Renovar el token de acceso con el refresh guardado",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			client, err := a.client(store)
			if err != nil {
				return err
			}
			if err := client.Refresh(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "token renovado")
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Borrar la sesión guardada",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			if token, _ := store.Get(repository.KeyAccessToken); token == "" {
				fmt.Fprintln(a.stdout, "no había sesión")
				return nil
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "sesión cerrada")
			return nil
		},
	}
}
