// Package cli comandos de la herramienta de línea de comandos del portal: login,
// elección de sector, traspaso de token, vigilancia de inactividad y logout.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jhoicas/portal-movimiento/internal/application/portal"
	"github.com/jhoicas/portal-movimiento/internal/domain/sector"
	"github.com/jhoicas/portal-movimiento/internal/infrastructure/backend"
	"github.com/jhoicas/portal-movimiento/internal/infrastructure/filestore"
	"github.com/jhoicas/portal-movimiento/pkg/config"
	"github.com/jhoicas/portal-movimiento/pkg/logger"
)

type app struct {
	cfg         *config.Config
	log         *logger.Logger
	apiURL      string
	sessionPath string
	origin      string
	in          io.Reader
	stdin       *bufio.Reader
	stdout      io.Writer
	stderr      io.Writer
}

// NewRootCommand construye el comando raíz con la entrada/salida estándar.
func NewRootCommand(cfg *config.Config, log *logger.Logger) *cobra.Command {
	return NewRootCommandWithIO(cfg, log, os.Stdin, os.Stdout, os.Stderr)
}

// NewRootCommandWithIO igual que NewRootCommand con E/S inyectables (tests).
func NewRootCommandWithIO(cfg *config.Config, log *logger.Logger, in io.Reader, out, errOut io.Writer) *cobra.Command {
	if log == nil {
		log = logger.Nop()
	}
	a := &app{
		cfg:    cfg,
		log:    log,
		in:     in,
		stdin:  bufio.NewReader(in),
		stdout: out,
		stderr: errOut,
	}

	cmd := &cobra.Command{
		Use:           "portal",
		Short:         "Cliente del portal Movimiento",
		Long:          "Inicia sesión contra el backend, elige sector, recibe tokens por URL y mantiene viva la sesión mientras haya actividad.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&a.apiURL, "api", cfg.Portal.APIURL, "URL del backend (vacío: según el entorno del origen)")
	cmd.PersistentFlags().StringVar(&a.sessionPath, "session", "", "archivo de sesión (por defecto ~/.portal/session.yaml)")
	cmd.PersistentFlags().StringVar(&a.origin, "origin", cfg.Portal.RootOrigin, "página desde la que se opera; un host local usa los puertos de desarrollo")

	cmd.AddCommand(
		newLoginCmd(a),
		newChooseCmd(a),
		newOpenCmd(a),
		newStatusCmd(a),
		newMeCmd(a),
		newRefreshCmd(a),
		newWatchCmd(a),
		newLogoutCmd(a),
	)

	cmd.SetErrPrefix("portal: ")
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd
}

func (a *app) store() (*filestore.SessionStore, error) {
	path := a.sessionPath
	if path == "" {
		var err error
		if path, err = filestore.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return filestore.New(path), nil
}

func (a *app) environment() (sector.Environment, error) {
	u, err := url.Parse(a.origin)
	if err != nil || u.Host == "" {
		return sector.Environment{}, fmt.Errorf("origen inválido %q", a.origin)
	}
	return sector.DetectEnvironment(u), nil
}

func (a *app) resolver() *sector.Resolver {
	p := a.cfg.Portal
	return sector.NewResolver(sector.Topology{
		ManagersSector: p.ManagersSector,
		ManagersOrigin: p.ManagersOrigin,
		ManagersPort:   p.ManagersPort,
		RootDomain:     p.RootDomain,
		LocalPorts:     p.LocalPorts,
		DefaultPort:    p.DefaultPort,
	})
}

// navigator "navegar" en la terminal es mostrar la URL de destino.
func (a *app) navigator() portal.Navigator {
	return portal.NavigatorFunc(func(u string) error {
		_, err := fmt.Fprintf(a.stdout, "→ %s\n", u)
		return err
	})
}

func (a *app) client(store *filestore.SessionStore) (*backend.Client, error) {
	base := a.apiURL
	if base == "" {
		env, err := a.environment()
		if err != nil {
			return nil, err
		}
		base = backend.ProductionAPIURL
		if env.Kind == sector.Local {
			base = backend.LocalAPIURL
		}
	}
	return backend.New(backend.Options{
		BaseURL:   base,
		Store:     store,
		Navigator: a.navigator(),
		LoginURL:  a.loginURL(),
	}), nil
}

// loginURL login del origen raíz; en local el login vive en el mismo origen.
func (a *app) loginURL() string {
	return strings.TrimRight(a.origin, "/") + "/login"
}

// readLine lee una línea de la entrada; EOF con texto cuenta como línea.
func (a *app) readLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(a.stderr, prompt)
	}
	line, err := a.stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword en una terminal lee sin eco; con la entrada redirigida lee una línea.
func (a *app) readPassword(prompt string) (string, error) {
	f, ok := a.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return a.readLine(prompt)
	}
	fmt.Fprint(a.stderr, prompt)
	raw, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(a.stderr)
	if err != nil {
		return "", fmt.Errorf("leer password: %w", err)
	}
	return string(raw), nil
}
