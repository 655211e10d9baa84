package export

import (
	"log"

	"github.com/lfsj/RealNerdStats/pkg/types"
)

// Guard wraps an exporter so a mid-run failure disables export with a single
// warning instead of stopping the dashboard.
type Guard struct {
	next     Exporter
	logger   *log.Logger
	disabled bool
	closed   bool
}

// NewGuard wraps next. A nil logger uses log.Default().
func NewGuard(next Exporter, logger *log.Logger) *Guard {
	if logger == nil {
		logger = log.Default()
	}
	return &Guard{next: next, logger: logger}
}

// Disabled reports whether a previous failure turned export off.
func (g *Guard) Disabled() bool {
	return g.disabled
}

// Consume forwards to the wrapped exporter until it fails once.
func (g *Guard) Consume(snap types.Snapshot) error {
	if g.disabled {
		return nil
	}
	if err := g.next.Consume(snap); err != nil {
		g.disabled = true
		g.logger.Printf("export disabled after tick %d: %v", snap.Seq, err)
		_ = g.closeNext()
	}
	return nil
}

// Close closes the wrapped exporter once.
func (g *Guard) Close() error {
	return g.closeNext()
}

func (g *Guard) closeNext() error {
	if g.closed {
		return nil
	}
	g.closed = true
	return g.next.Close()
}
