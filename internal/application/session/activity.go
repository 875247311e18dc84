package session

import (
	"sync/atomic"
	"time"
)

// ActivityEvent interacción del usuario que reinicia el contador de inactividad.
type ActivityEvent string

const (
	PointerMove ActivityEvent = "pointermove"
	KeyPress    ActivityEvent = "keypress"
	Scroll      ActivityEvent = "scroll"
	Click       ActivityEvent = "click"
)

// Counts informa si el evento es uno de los que cuentan como actividad.
func (e ActivityEvent) Counts() bool {
	switch e {
	case PointerMove, KeyPress, Scroll, Click:
		return true
	}
	return false
}

// ActivitySource entrega eventos de actividad. Subscribe devuelve la función que
// desconecta el listener.
type ActivitySource interface {
	Subscribe(func(ActivityEvent)) (unsubscribe func())
}

// ActivityClock instante de la última actividad; nunca retrocede.
type ActivityClock struct {
	last atomic.Int64 // UnixNano
}

// NewActivityClock arranca el reloj en start.
func NewActivityClock(start time.Time) *ActivityClock {
	c := &ActivityClock{}
	c.last.Store(start.UnixNano())
	return c
}

// Touch adelanta el reloj a now; si now es anterior al valor guardado no cambia nada.
func (c *ActivityClock) Touch(now time.Time) {
	n := now.UnixNano()
	for {
		cur := c.last.Load()
		if n <= cur {
			return
		}
		if c.last.CompareAndSwap(cur, n) {
			return
		}
	}
}

// Last instante de la última actividad registrada.
func (c *ActivityClock) Last() time.Time {
	return time.Unix(0, c.last.Load())
}

// Idle tiempo transcurrido desde la última actividad.
func (c *ActivityClock) Idle(now time.Time) time.Duration {
	return now.Sub(c.Last())
}
