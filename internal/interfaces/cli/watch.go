package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/portal-movimiento/internal/application/portal"
	"github.com/jhoicas/portal-movimiento/internal/application/session"
	"github.com/jhoicas/portal-movimiento/internal/domain"
	"github.com/jhoicas/portal-movimiento/internal/infrastructure/metrics"
)

func newWatchCmd(a *app) *cobra.Command {
	var idle time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Mantener viva la sesión mientras haya actividad y cerrarla tras la inactividad máxima",
		Long: "Cada línea leída de la entrada cuenta como una tecla pulsada. Con actividad reciente se " +
			"envía el heartbeat al backend; sin actividad durante la inactividad máxima se borra la sesión.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			if d := (portal.Guard{Store: store, RootOrigin: a.cfg.Portal.RootOrigin}).Check(); !d.Allowed {
				_ = a.navigator().Navigate(d.RedirectURL)
				return domain.ErrNoSession
			}
			client, err := a.client(store)
			if err != nil {
				return err
			}

			s := a.cfg.Session
			timings := session.Timings{
				IdleTimeout:       s.IdleTimeout,
				CheckInterval:     s.CheckInterval,
				HeartbeatInterval: s.HeartbeatInterval,
				FreshnessWindow:   s.FreshnessWindow,
				HeartbeatTimeout:  session.DefaultTimings().HeartbeatTimeout,
			}
			if idle > 0 {
				timings.IdleTimeout = idle
				timings.FreshnessWindow = min(timings.FreshnessWindow, idle)
			}

			ext, err := session.NewExtender(session.Config{
				Timings:    timings,
				Clock:      session.SystemClock{},
				Store:      store,
				Navigator:  a.navigator(),
				Heartbeat:  client,
				Activity:   newLineActivity(a.stdin),
				RootOrigin: a.cfg.Portal.RootOrigin,
				Logger:     a.log,
				Hooks: session.Hooks{
					OnHeartbeat: metrics.ObserveHeartbeat,
					OnExpire:    metrics.ObserveIdleExpiration,
				},
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := ext.Start(ctx); err != nil {
				return err
			}
			defer ext.Stop()
			fmt.Fprintf(a.stdout, "vigilando inactividad (máximo %s)\n", timings.IdleTimeout)

			select {
			case <-ext.Done():
				fmt.Fprintln(a.stdout, "sesión cerrada por inactividad")
			case <-ctx.Done():
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&idle, "idle", 0, "inactividad máxima (por defecto SESSION_IDLE_TIMEOUT)")
	return cmd
}

// lineActivity fuente de actividad sobre una entrada de texto: cada línea es un KeyPress.
// La lectura arranca con la primera suscripción y sigue hasta EOF.
type lineActivity struct {
	r    *bufio.Reader
	once sync.Once

	mu      sync.Mutex
	handler func(session.ActivityEvent)
}

func newLineActivity(r *bufio.Reader) *lineActivity {
	return &lineActivity{r: r}
}

func (l *lineActivity) Subscribe(h func(session.ActivityEvent)) func() {
	l.mu.Lock()
	l.handler = h
	l.mu.Unlock()
	l.once.Do(func() { go l.read() })
	return func() {
		l.mu.Lock()
		l.handler = nil
		l.mu.Unlock()
	}
}

func (l *lineActivity) read() {
	for {
		if _, err := l.r.ReadString('\n'); err != nil {
			return
		}
		l.mu.Lock()
		h := l.handler
		l.mu.Unlock()
		if h != nil {
			h(session.KeyPress)
		}
	}
}
