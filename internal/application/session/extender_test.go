package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-movimiento/internal/application/portal"
	"github.com/jhoicas/portal-movimiento/internal/application/session"
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
	"github.com/jhoicas/portal-movimiento/internal/infrastructure/memory"
)

const rootOrigin = "https://ushuaiamovimiento.com.ar"

// ──────────────────────────────────────────────────────────────────────────────
// Reloj manual: los ticks los envía el test y la hora avanza a mano.
// ──────────────────────────────────────────────────────────────────────────────

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               { t.stopped.Store(true) }

type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers map[time.Duration]*manualTicker
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), tickers: map[time.Duration]*manualTicker{}}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) NewTicker(d time.Duration) session.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	c.tickers[d] = t
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *manualClock) ticker(d time.Duration) *manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[d]
}

// tick entrega un tick y espera a que el loop lo reciba.
func (c *manualClock) tick(t *testing.T, d time.Duration) {
	t.Helper()
	tk := c.ticker(d)
	require.NotNil(t, tk, "no hay ticker de %s", d)
	select {
	case tk.ch <- c.Now():
	case <-time.After(2 * time.Second):
		t.Fatalf("el loop de %s no recibió el tick", d)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Dobles
// ──────────────────────────────────────────────────────────────────────────────

type fakeSource struct {
	mu       sync.Mutex
	handler  func(session.ActivityEvent)
	detached int
}

func (s *fakeSource) Subscribe(h func(session.ActivityEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.handler = nil
		s.detached++
	}
}

func (s *fakeSource) detachCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detached
}

func (s *fakeSource) emit(ev session.ActivityEvent) bool {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h == nil {
		return false
	}
	h(ev)
	return true
}

type countingHeartbeat struct {
	calls atomic.Int32
	err   error
	block bool
}

func (h *countingHeartbeat) ExtendSession(ctx context.Context) error {
	h.calls.Add(1)
	if h.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return h.err
}

type navRecorder struct {
	mu   sync.Mutex
	urls []string
}

func (n *navRecorder) Navigate(u string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, u)
	return nil
}

func (n *navRecorder) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.urls...)
}

var _ portal.Navigator = (*navRecorder)(nil)

type harness struct {
	clock  *manualClock
	store  *memory.SessionStore
	nav    *navRecorder
	hb     *countingHeartbeat
	source *fakeSource
	ext    *session.Extender
	t      session.Timings
}

func newHarness(t *testing.T, hb *countingHeartbeat) *harness {
	t.Helper()
	h := &harness{
		clock:  newManualClock(),
		store:  memory.NewSessionStore(),
		nav:    &navRecorder{},
		hb:     hb,
		source: &fakeSource{},
		t:      session.DefaultTimings(),
	}
	require.NoError(t, h.store.Set(repository.KeyAccessToken, "acc"))
	require.NoError(t, h.store.Set(repository.KeyRole, "jefe"))

	ext, err := session.NewExtender(session.Config{
		Timings:    h.t,
		Clock:      h.clock,
		Store:      h.store,
		Navigator:  h.nav,
		Heartbeat:  hb,
		Activity:   h.source,
		RootOrigin: rootOrigin,
	})
	require.NoError(t, err)
	h.ext = ext
	require.NoError(t, ext.Start(context.Background()))
	t.Cleanup(ext.Stop)
	return h
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestTimings_Validate(t *testing.T) {
	require.NoError(t, session.DefaultTimings().Validate())

	bad := session.DefaultTimings()
	bad.FreshnessWindow = 2 * time.Hour
	assert.Error(t, bad.Validate(), "la frescura no puede superar la inactividad")

	bad = session.DefaultTimings()
	bad.CheckInterval = 0
	assert.Error(t, bad.Validate())

	_, err := session.NewExtender(session.Config{Timings: bad, Store: memory.NewSessionStore()})
	assert.Error(t, err)
}

func TestActivityClock_NoRetrocede(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	c := session.NewActivityClock(base)
	c.Touch(base.Add(time.Minute))
	c.Touch(base.Add(-time.Hour))
	assert.True(t, c.Last().Equal(base.Add(time.Minute)))
	assert.Equal(t, 4*time.Minute, c.Idle(base.Add(5*time.Minute)))
}

func TestExtender_ActividadMantieneActiva(t *testing.T) {
	h := newHarness(t, &countingHeartbeat{})

	h.clock.Advance(59 * time.Minute)
	h.clock.tick(t, h.t.CheckInterval)
	require.True(t, h.source.emit(session.KeyPress))

	h.clock.Advance(59 * time.Minute)
	h.clock.tick(t, h.t.CheckInterval)
	h.clock.tick(t, h.t.CheckInterval)

	assert.Equal(t, session.Active, h.ext.State())
	assert.Empty(t, h.nav.all())
}

func TestExtender_InactividadExpiraUnaSolaVez(t *testing.T) {
	h := newHarness(t, &countingHeartbeat{})
	require.True(t, h.source.emit(session.Click))

	h.clock.Advance(time.Hour)
	h.clock.tick(t, h.t.CheckInterval)

	select {
	case <-h.ext.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("la sesión debía expirar")
	}
	h.ext.Stop()

	assert.Equal(t, session.Expired, h.ext.State())
	assert.Equal(t, []string{rootOrigin}, h.nav.all(), "una sola redirección al origen raíz")
	assert.Empty(t, h.store.Snapshot(), "se borran todas las claves de sesión")
	assert.Equal(t, 1, h.source.detachCount(), "los listeners se desconectan al expirar")
	assert.False(t, h.source.emit(session.Click))

	assert.ErrorIs(t, h.ext.Start(context.Background()), session.ErrExpired)
}

func TestExtender_EventosQueNoCuentanSeIgnoran(t *testing.T) {
	h := newHarness(t, &countingHeartbeat{})
	before := h.ext.LastActivity()

	h.clock.Advance(10 * time.Minute)
	h.ext.Record(session.ActivityEvent("resize"))
	assert.True(t, h.ext.LastActivity().Equal(before))

	h.ext.Record(session.Scroll)
	assert.True(t, h.ext.LastActivity().Equal(h.clock.Now()))
}

func TestExtender_HeartbeatSoloConActividadReciente(t *testing.T) {
	hb := &countingHeartbeat{}
	h := newHarness(t, hb)

	h.clock.Advance(14 * time.Minute)
	h.clock.tick(t, h.t.HeartbeatInterval) // actividad hace 14 min: se envía

	h.clock.Advance(16 * time.Minute)
	h.clock.tick(t, h.t.HeartbeatInterval) // 30 min sin actividad: no se envía

	require.True(t, h.source.emit(session.PointerMove))
	h.clock.Advance(time.Minute)
	h.clock.tick(t, h.t.HeartbeatInterval) // actividad reciente otra vez

	h.ext.Stop()
	assert.Equal(t, int32(2), hb.calls.Load())
	assert.Equal(t, session.Active, h.ext.State())
}

func TestExtender_FalloDeHeartbeatNoCierraSesion(t *testing.T) {
	hb := &countingHeartbeat{err: errors.New("red caída")}
	h := newHarness(t, hb)

	h.clock.Advance(time.Minute)
	h.clock.tick(t, h.t.HeartbeatInterval)
	h.clock.tick(t, h.t.CheckInterval)
	h.ext.Stop()

	assert.Equal(t, int32(1), hb.calls.Load())
	assert.Equal(t, session.Active, h.ext.State())
	assert.Empty(t, h.nav.all())
	token, _ := h.store.Get(repository.KeyAccessToken)
	assert.Equal(t, "acc", token)
}

func TestExtender_HeartbeatLentoNoBloqueaElCierre(t *testing.T) {
	hb := &countingHeartbeat{block: true}
	h := newHarness(t, hb)

	h.clock.tick(t, h.t.HeartbeatInterval) // queda colgado hasta la cancelación
	assert.Eventually(t, func() bool { return hb.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	h.clock.Advance(time.Hour)
	h.clock.tick(t, h.t.CheckInterval)

	select {
	case <-h.ext.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("el cierre por inactividad no debe esperar al heartbeat")
	}
	h.ext.Stop() // cancela el heartbeat en vuelo
	assert.Equal(t, []string{rootOrigin}, h.nav.all())
}

func TestExtender_StopLiberaTodo(t *testing.T) {
	h := newHarness(t, &countingHeartbeat{})
	h.ext.Stop()
	h.ext.Stop()

	assert.Equal(t, 1, h.source.detachCount())
	assert.False(t, h.source.emit(session.KeyPress))
	assert.Eventually(t, func() bool {
		return h.clock.ticker(h.t.CheckInterval).stopped.Load() && h.clock.ticker(h.t.HeartbeatInterval).stopped.Load()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, session.Active, h.ext.State(), "desmontar no es expirar")
	assert.ErrorIs(t, h.ext.Start(context.Background()), session.ErrAlreadyStarted)
}
