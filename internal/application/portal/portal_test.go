package portal_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-movimiento/internal/application/dto"
	"github.com/jhoicas/portal-movimiento/internal/application/portal"
	"github.com/jhoicas/portal-movimiento/internal/domain"
	"github.com/jhoicas/portal-movimiento/internal/domain/entity"
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
	"github.com/jhoicas/portal-movimiento/internal/domain/sector"
	"github.com/jhoicas/portal-movimiento/internal/infrastructure/memory"
)

const rootDomain = "ushuaiamovimiento.com.ar"

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

type recorder struct {
	urls []string
	err  error
}

func (r *recorder) Navigate(u string) error {
	r.urls = append(r.urls, u)
	return r.err
}

func (r *recorder) Replace(u string) error {
	r.urls = append(r.urls, u)
	return r.err
}

type fakeAuth struct {
	pair *dto.TokenPairResponse
	err  error
}

func (f fakeAuth) Authenticate(context.Context, string, string) (*dto.TokenPairResponse, error) {
	return f.pair, f.err
}

func resolver() *sector.Resolver {
	return sector.NewResolver(sector.Topology{
		ManagersSector: "jefe",
		ManagersOrigin: "https://jefes." + rootDomain,
		ManagersPort:   5174,
		RootDomain:     rootDomain,
		LocalPorts:     map[string]int{"stock": 5176},
		DefaultPort:    5173,
	})
}

func prodEnv() sector.Environment {
	return sector.DetectEnvironment(&url.URL{Scheme: "https", Host: rootDomain, Path: "/login"})
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func pair(accesos ...string) *dto.TokenPairResponse {
	return &dto.TokenPairResponse{Access: "acc", Refresh: "ref", Role: "jefe", Name: "Ana", Accesos: accesos}
}

// ──────────────────────────────────────────────────────────────────────────────
// Token Bootstrap
// ──────────────────────────────────────────────────────────────────────────────

func TestBootstrap_CapturaTokenYLimpiaURL(t *testing.T) {
	store := memory.NewSessionStore()
	require.NoError(t, store.Set(repository.KeyAccessToken, "viejo"))
	hist := &recorder{}

	res, err := portal.Bootstrap(store, hist, mustURL(t, "https://barrios.example.org/panel?token=nuevo"), portal.BootstrapPolicy{})
	require.NoError(t, err)

	assert.True(t, res.Ready)
	assert.True(t, res.Captured)
	assert.Equal(t, "/panel", res.CleanURL)
	assert.Equal(t, []string{"/panel"}, hist.urls, "reemplaza la URL una sola vez")

	got, _ := store.Get(repository.KeyAccessToken)
	assert.Equal(t, "nuevo", got, "el token de la URL sobrescribe el anterior")
}

func TestBootstrap_SinTokenNoToca(t *testing.T) {
	store := memory.NewSessionStore()
	require.NoError(t, store.Set(repository.KeyAccessToken, "guardado"))
	hist := &recorder{}

	res, err := portal.Bootstrap(store, hist, mustURL(t, "https://barrios.example.org/panel?x=1"), portal.BootstrapPolicy{})
	require.NoError(t, err)

	assert.True(t, res.Ready)
	assert.False(t, res.Captured)
	assert.Empty(t, hist.urls)
	got, _ := store.Get(repository.KeyAccessToken)
	assert.Equal(t, "guardado", got)
}

func TestBootstrap_PoliticaPorDefectoDescartaConsulta(t *testing.T) {
	res, err := portal.Bootstrap(memory.NewSessionStore(), nil,
		mustURL(t, "https://x.example.org/encuesta/3?tab=2&token=t#frag"), portal.BootstrapPolicy{})
	require.NoError(t, err)
	assert.Equal(t, "/encuesta/3", res.CleanURL)
}

func TestBootstrap_KeepOtherParamsConservaDeepLink(t *testing.T) {
	res, err := portal.Bootstrap(memory.NewSessionStore(), nil,
		mustURL(t, "https://x.example.org/encuesta/3?tab=2&token=t"), portal.BootstrapPolicy{KeepOtherParams: true})
	require.NoError(t, err)
	assert.Equal(t, "/encuesta/3?tab=2", res.CleanURL)
}

func TestBootstrap_RaizSinRuta(t *testing.T) {
	res, err := portal.Bootstrap(memory.NewSessionStore(), nil, mustURL(t, "https://x.example.org?token=t"), portal.BootstrapPolicy{})
	require.NoError(t, err)
	assert.Equal(t, "/", res.CleanURL)
}

// ──────────────────────────────────────────────────────────────────────────────
// Session Guard
// ──────────────────────────────────────────────────────────────────────────────

func TestGuard_SinTokenRedirigeSiempre(t *testing.T) {
	g := portal.Guard{Store: memory.NewSessionStore(), RootOrigin: "https://" + rootDomain}
	for i := 0; i < 3; i++ {
		d := g.Check()
		assert.False(t, d.Allowed)
		assert.Equal(t, "https://"+rootDomain, d.RedirectURL)
	}
}

func TestGuard_ConTokenPermite(t *testing.T) {
	store := memory.NewSessionStore()
	require.NoError(t, store.Set(repository.KeyAccessToken, "cualquier-cosa"))
	d := portal.Guard{Store: store, RootOrigin: "https://" + rootDomain}.Check()
	assert.True(t, d.Allowed)
	assert.Empty(t, d.RedirectURL)
}

// ──────────────────────────────────────────────────────────────────────────────
// Login decision
// ──────────────────────────────────────────────────────────────────────────────

// Escenario A: un solo sector navega automáticamente.
func TestSubmit_UnSectorRedirigeDirecto(t *testing.T) {
	store := memory.NewSessionStore()
	nav := &recorder{}
	flow := portal.LoginFlow{Auth: fakeAuth{pair: pair("ventas")}, Store: store, Resolver: resolver(), Navigator: nav}

	out, err := flow.Submit(context.Background(), "a@b.c", "x", prodEnv())
	require.NoError(t, err)

	assert.Equal(t, portal.OutcomeRedirect, out.Kind)
	assert.Equal(t, "https://ventas."+rootDomain+"?token=acc", out.URL)
	assert.Equal(t, []string{out.URL}, nav.urls)

	snap := store.Snapshot()
	assert.Equal(t, "acc", snap[repository.KeyAccessToken])
	assert.Equal(t, "ref", snap[repository.KeyRefreshToken])
	assert.Equal(t, "Ana", snap[repository.KeyUserName])
	assert.Equal(t, `["ventas"]`, snap[repository.KeyAccesos])
}

// Escenario B: varios sectores muestran la lista; elegir jefe va al origen de jefes.
func TestSubmit_VariosSectoresMuestraLista(t *testing.T) {
	store := memory.NewSessionStore()
	nav := &recorder{}
	flow := portal.LoginFlow{Auth: fakeAuth{pair: pair("ventas", "jefe")}, Store: store, Resolver: resolver(), Navigator: nav}

	out, err := flow.Submit(context.Background(), "a@b.c", "x", prodEnv())
	require.NoError(t, err)
	assert.Equal(t, portal.OutcomeSelect, out.Kind)
	assert.Equal(t, []string{"ventas", "jefe"}, out.Sectors)
	assert.Empty(t, nav.urls, "no se navega hasta elegir")

	target, err := flow.Choose(context.Background(), "jefe", prodEnv())
	require.NoError(t, err)
	assert.Equal(t, "https://jefes."+rootDomain+"?token=acc", target)
	assert.NotContains(t, target, "//jefe.")
	assert.Equal(t, []string{target}, nav.urls)
}

// Escenario C: sin sectores no hay navegación y se informa el error.
func TestSubmit_SinSectoresFalla(t *testing.T) {
	store := memory.NewSessionStore()
	require.NoError(t, store.Set(repository.KeyAccessToken, "previo"))
	nav := &recorder{}
	flow := portal.LoginFlow{Auth: fakeAuth{pair: pair()}, Store: store, Resolver: resolver(), Navigator: nav}

	out, err := flow.Submit(context.Background(), "a@b.c", "x", prodEnv())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrNoSectors)
	assert.Equal(t, "No tienes un sector asignado para ingresar.", err.Error())
	assert.Empty(t, nav.urls)
	got, _ := store.Get(repository.KeyAccessToken)
	assert.Equal(t, "previo", got)
}

func TestSubmit_SectorQueNoResuelveNoGuardaNiNavega(t *testing.T) {
	store := memory.NewSessionStore()
	require.NoError(t, store.Set(repository.KeyAccessToken, "previo"))
	nav := &recorder{}
	flow := portal.LoginFlow{Auth: fakeAuth{pair: pair("x.y")}, Store: store, Resolver: resolver(), Navigator: nav}

	out, err := flow.Submit(context.Background(), "a@b.c", "x", prodEnv())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrInvalidSector)
	assert.Empty(t, nav.urls)
	assert.Equal(t, map[string]string{repository.KeyAccessToken: "previo"}, store.Snapshot())
}

func TestSubmit_SectorConGuionBajo(t *testing.T) {
	store := memory.NewSessionStore()
	nav := &recorder{}
	flow := portal.LoginFlow{Auth: fakeAuth{pair: pair("recursos_humanos")}, Store: store, Resolver: resolver(), Navigator: nav}

	out, err := flow.Submit(context.Background(), "a@b.c", "x", prodEnv())
	require.NoError(t, err)
	assert.Equal(t, "https://recursos_humanos."+rootDomain+"?token=acc", out.URL)
	assert.Equal(t, []string{out.URL}, nav.urls)
}

func TestSubmit_CredencialesInvalidasNoBorraSesionPrevia(t *testing.T) {
	store := memory.NewSessionStore()
	require.NoError(t, store.Set(repository.KeyAccessToken, "previo"))
	flow := portal.LoginFlow{Auth: fakeAuth{err: domain.ErrUnauthorized}, Store: store, Resolver: resolver()}

	_, err := flow.Submit(context.Background(), "a@b.c", "x", prodEnv())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	got, _ := store.Get(repository.KeyAccessToken)
	assert.Equal(t, "previo", got)
}

func TestChoose_SectorAjenoOSinSesion(t *testing.T) {
	store := memory.NewSessionStore()
	flow := portal.LoginFlow{Auth: fakeAuth{pair: pair("ventas", "stock")}, Store: store, Resolver: resolver()}

	_, err := flow.Choose(context.Background(), "ventas", prodEnv())
	assert.ErrorIs(t, err, domain.ErrNoSession)

	_, err = flow.Submit(context.Background(), "a@b.c", "x", prodEnv())
	require.NoError(t, err)
	_, err = flow.Choose(context.Background(), "barrios", prodEnv())
	assert.ErrorIs(t, err, domain.ErrSectorNotGranted)
}

// Escenario D a través del flujo: local + stock usa su puerto.
func TestSubmit_LocalUsaMapaDePuertos(t *testing.T) {
	flow := portal.LoginFlow{Auth: fakeAuth{pair: pair("stock")}, Store: memory.NewSessionStore(), Resolver: resolver()}
	local := sector.DetectEnvironment(mustURL(t, "http://localhost:5173/"))

	out, err := flow.Submit(context.Background(), "a@b.c", "x", local)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5176?token=acc", out.URL)
}

// ──────────────────────────────────────────────────────────────────────────────
// 401 y estado de sesión
// ──────────────────────────────────────────────────────────────────────────────

func TestUnauthorized_BorraYNavegaAlLogin(t *testing.T) {
	store := memory.NewSessionStore()
	require.NoError(t, portal.SaveSession(store, &entity.Session{AccessToken: "acc", RefreshToken: "ref", Role: "empleado", Sectors: []string{"ventas"}, UserName: "Ana"}))
	require.NoError(t, store.Set("preferencia", "oscuro"))
	nav := &recorder{}

	err := portal.Unauthorized(store, nav, "https://"+rootDomain+"/login")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, []string{"https://" + rootDomain + "/login"}, nav.urls)

	snap := store.Snapshot()
	for _, k := range repository.SessionKeys {
		assert.NotContains(t, snap, k)
	}
	assert.Equal(t, "oscuro", snap["preferencia"], "solo se borran las claves de sesión")
}

func TestUnauthorized_PropagaErrorDeNavegacion(t *testing.T) {
	nav := &recorder{err: errors.New("sin ventana")}
	err := portal.Unauthorized(memory.NewSessionStore(), nav, "/login")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Contains(t, err.Error(), "sin ventana")
}

func TestLoadSession_AccesosIlegiblesCuentanComoVacio(t *testing.T) {
	store := memory.NewSessionStore()
	require.NoError(t, store.Set(repository.KeyAccessToken, "t"))
	require.NoError(t, store.Set(repository.KeyAccesos, "{roto"))

	s, err := portal.LoadSession(store)
	require.NoError(t, err)
	assert.Equal(t, "t", s.AccessToken)
	assert.Empty(t, s.Sectors)
	assert.False(t, s.Navigable())
}

func TestSectorOptions_EtiquetasEnEspanol(t *testing.T) {
	opts := portal.SectorOptions([]string{"barrios", "atencion-vecinal"}, func(s string) string { return "/portal/sectors/" + s })
	require.Len(t, opts, 2)
	assert.Equal(t, "Barrios", opts[0].Label)
	assert.Equal(t, "Ingresar al sistema de barrios", opts[0].Description)
	assert.Equal(t, "/portal/sectors/barrios", opts[0].URL)
	assert.Equal(t, "Atencion Vecinal", opts[1].Label)
}
