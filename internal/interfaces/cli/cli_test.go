package cli_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-movimiento/internal/application/auth"
	"github.com/jhoicas/portal-movimiento/internal/application/dto"
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
	"github.com/jhoicas/portal-movimiento/internal/domain/sector"
	"github.com/jhoicas/portal-movimiento/internal/infrastructure/filestore"
	"github.com/jhoicas/portal-movimiento/internal/infrastructure/memory"
	"github.com/jhoicas/portal-movimiento/internal/interfaces/cli"
	apphttp "github.com/jhoicas/portal-movimiento/internal/interfaces/http"
	"github.com/jhoicas/portal-movimiento/pkg/config"
)

const (
	rootOrigin = "https://ushuaiamovimiento.com.ar"
	password   = "clave-segura"
	jwtSecret  = "cli-test-secret"
)

type env struct {
	cfg         *config.Config
	uc          *auth.AuthUseCase
	api         *httptest.Server
	sessionPath string
	extends     atomic.Int32
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		cfg: &config.Config{
			App: config.AppConfig{Env: "development"},
			Portal: config.PortalConfig{
				RootOrigin:     rootOrigin,
				ManagersOrigin: "https://jefes.ushuaiamovimiento.com.ar",
				ManagersPort:   5174,
				ManagersSector: "jefe",
				RootDomain:     "ushuaiamovimiento.com.ar",
				LocalPorts:     map[string]int{"stock": 5176},
				DefaultPort:    5173,
			},
			Session: config.SessionConfig{
				IdleTimeout:       time.Hour,
				CheckInterval:     time.Second,
				HeartbeatInterval: 15 * time.Minute,
				FreshnessWindow:   15 * time.Minute,
				ServerTTL:         time.Hour,
			},
		},
		sessionPath: filepath.Join(t.TempDir(), "session.yaml"),
	}
	e.uc = auth.NewAuthUseCase(memory.NewUserRepository(), memory.NewServerSessionRepository(nil),
		auth.JWTConfig{Secret: jwtSecret, ExpMinutes: 60, RefreshExpMinutes: 120, Issuer: "cli-test"},
		auth.SessionConfig{ManagersSector: "jefe", ServerTTL: time.Hour},
	)
	app := fiber.New()
	app.Use("/api/auth/extend-session/", func(c *fiber.Ctx) error {
		e.extends.Add(1)
		return c.Next()
	})
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:    e.uc,
		Resolver:  sector.NewResolver(sector.Topology{ManagersSector: "jefe", RootDomain: "ushuaiamovimiento.com.ar"}),
		Portal:    e.cfg.Portal,
		JWTSecret: jwtSecret,
	})
	e.api = httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(e.api.Close)
	return e
}

func (e *env) user(t *testing.T, email, role string, sectors ...string) {
	t.Helper()
	_, err := e.uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: email, Password: password, Name: "Ana", Role: role, Sectors: sectors})
	require.NoError(t, err)
}

// run ejecuta la herramienta con los argumentos dados y devuelve stdout.
func (e *env) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := cli.NewRootCommandWithIO(e.cfg, nil, strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(append([]string{"--api", e.api.URL, "--session", e.sessionPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *env) stored(t *testing.T, key string) string {
	t.Helper()
	v, err := filestore.New(e.sessionPath).Get(key)
	require.NoError(t, err)
	return v
}

func TestLogin_UnSectorNavegaConToken(t *testing.T) {
	e := newEnv(t)
	e.user(t, "ana@example.org", "empleado", "stock")

	out, err := e.run(t, "", "login", "-e", "ana@example.org", "-p", password)
	require.NoError(t, err)

	token := e.stored(t, repository.KeyAccessToken)
	require.NotEmpty(t, token)
	assert.Equal(t, "→ https://stock.ushuaiamovimiento.com.ar?token="+token+"\n", out)
	assert.Equal(t, `["stock"]`, e.stored(t, repository.KeyAccesos))
}

func TestLogin_PasswordDesdeLaEntradaYOrigenLocal(t *testing.T) {
	e := newEnv(t)
	e.user(t, "ana@example.org", "empleado", "stock")

	out, err := e.run(t, password+"\n", "--origin", "http://localhost:5173", "login", "-e", "ana@example.org")
	require.NoError(t, err)
	assert.Contains(t, out, "→ http://localhost:5176?token=")
}

func TestLogin_EmailYPasswordDesdeUnPipe(t *testing.T) {
	e := newEnv(t)
	e.user(t, "ana@example.org", "empleado", "stock")

	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	_, err = w.WriteString("ana@example.org\n" + password + "\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var out, errOut bytes.Buffer
	cmd := cli.NewRootCommandWithIO(e.cfg, nil, r, &out, &errOut)
	cmd.SetArgs([]string{"--api", e.api.URL, "--session", e.sessionPath, "login"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "→ https://stock.ushuaiamovimiento.com.ar?token="+e.stored(t, repository.KeyAccessToken)+"\n", out.String())
	assert.Equal(t, "email: password: ", errOut.String(), "sin terminal se lee la línea tal cual")
}

func TestLogin_VariosSectoresListaYChoose(t *testing.T) {
	e := newEnv(t)
	e.user(t, "jefa@example.org", "jefe", "barrios")

	out, err := e.run(t, "", "login", "-e", "jefa@example.org", "-p", password)
	require.NoError(t, err)
	assert.NotContains(t, out, "→", "con varios sectores no se navega")
	assert.Contains(t, out, "jefe")
	assert.Contains(t, out, "barrios")

	out, err = e.run(t, "", "choose", "barrios")
	require.NoError(t, err)
	assert.Equal(t, "→ https://barrios.ushuaiamovimiento.com.ar?token="+e.stored(t, repository.KeyAccessToken)+"\n", out)

	_, err = e.run(t, "", "choose", "stock")
	assert.Error(t, err, "solo sectores de la sesión")
}

func TestLogin_SinSectoresNoGuardaNada(t *testing.T) {
	e := newEnv(t)
	e.user(t, "emp@example.org", "empleado")

	out, err := e.run(t, "", "login", "-e", "emp@example.org", "-p", password)
	require.Error(t, err)
	assert.Equal(t, "No tienes un sector asignado para ingresar.", err.Error())
	assert.Empty(t, out)
	_, statErr := os.Stat(e.sessionPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLogin_CredencialesInvalidasConservanSesion(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, filestore.New(e.sessionPath).Set(repository.KeyAccessToken, "previo"))

	_, err := e.run(t, "", "login", "-e", "nadie@example.org", "-p", "mal")
	require.Error(t, err)
	assert.Equal(t, "previo", e.stored(t, repository.KeyAccessToken))
}

func TestOpenStatusLogout(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "sin sesión")
	assert.Contains(t, out, "→ "+rootOrigin)

	out, err = e.run(t, "", "open", "https://stock.ushuaiamovimiento.com.ar/panel?token=abc&tab=2")
	require.NoError(t, err)
	assert.Equal(t, "URL limpia: /panel\n", out)
	assert.Equal(t, "abc", e.stored(t, repository.KeyAccessToken))

	out, err = e.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, e.sessionPath)

	out, err = e.run(t, "", "logout")
	require.NoError(t, err)
	assert.Equal(t, "sesión cerrada\n", out)
	assert.Empty(t, e.stored(t, repository.KeyAccessToken))
}

func TestMe_TokenRechazadoBorraSesionYVaAlLogin(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, filestore.New(e.sessionPath).Set(repository.KeyAccessToken, "no.es.jwt"))

	out, err := e.run(t, "", "me")
	require.Error(t, err)
	assert.Equal(t, "→ "+rootOrigin+"/login\n", out)
	assert.Empty(t, e.stored(t, repository.KeyAccessToken))
}

func TestRefresh_RenuevaAccess(t *testing.T) {
	e := newEnv(t)
	e.user(t, "ana@example.org", "empleado", "stock")
	_, err := e.run(t, "", "login", "-e", "ana@example.org", "-p", password)
	require.NoError(t, err)
	require.NoError(t, filestore.New(e.sessionPath).Set(repository.KeyAccessToken, "viejo"))

	out, err := e.run(t, "", "refresh")
	require.NoError(t, err)
	assert.Equal(t, "token renovado\n", out)
	assert.NotEqual(t, "viejo", e.stored(t, repository.KeyAccessToken))

	out, err = e.run(t, "", "me")
	require.NoError(t, err)
	assert.Contains(t, out, "stock")
}

func TestWatch_SinSesionNoArranca(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "", "watch")
	require.Error(t, err)
	assert.Contains(t, out, "→ "+rootOrigin)
}

func TestWatch_HeartbeatYCierrePorInactividad(t *testing.T) {
	e := newEnv(t)
	e.user(t, "ana@example.org", "empleado", "stock")
	_, err := e.run(t, "", "login", "-e", "ana@example.org", "-p", password)
	require.NoError(t, err)

	e.cfg.Session = config.SessionConfig{
		IdleTimeout:       300 * time.Millisecond,
		CheckInterval:     10 * time.Millisecond,
		HeartbeatInterval: 50 * time.Millisecond,
		FreshnessWindow:   200 * time.Millisecond,
	}
	out, err := e.run(t, "", "watch")
	require.NoError(t, err)

	assert.Contains(t, out, "sesión cerrada por inactividad")
	assert.Contains(t, out, "→ "+rootOrigin+"\n")
	assert.Empty(t, e.stored(t, repository.KeyAccessToken))
	assert.GreaterOrEqual(t, e.extends.Load(), int32(1), "hubo heartbeat mientras la actividad era reciente")
}
