package pairing

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
	"github.com/robfig/cron/v3"
)

// Module runs the pairing service plus the periodic expiry sweep. Expired
// codes are also reaped lazily on claim; the sweep only bounds growth of
// rows nobody ever tries to claim again.
type Module struct {
	svc       *Service
	sweepSpec string
	cron      *cron.Cron
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)

// NewModule creates the pairing module. sweepSpec is a cron expression
// (e.g. "@every 1m").
func NewModule(svc *Service, sweepSpec string) *Module {
	return &Module{
		svc:       svc,
		sweepSpec: sweepSpec,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "pairing"
}

// Service returns the pairing service for wiring into the API module.
func (m *Module) Service() *Service {
	return m.svc
}

// Start schedules the expiry sweep.
func (m *Module) Start(_ context.Context) error {
	m.cron = cron.New()
	if _, err := m.cron.AddFunc(m.sweepSpec, m.sweep); err != nil {
		return err
	}
	m.cron.Start()
	log.Printf("[pairing] Module started - expiry sweep scheduled (%s)", m.sweepSpec)
	return nil
}

// Stop halts the sweep and waits for a running iteration to finish.
func (m *Module) Stop(ctx context.Context) error {
	if m.cron != nil {
		select {
		case <-m.cron.Stop().Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	log.Println("[pairing] Module stopped")
	return nil
}

func (m *Module) sweep() {
	reaped, err := m.svc.SweepExpired(context.Background())
	if err != nil {
		log.Printf("[pairing] Expiry sweep failed: %v", err)
		return
	}
	if reaped > 0 {
		log.Printf("[pairing] Reaped %d expired code(s)", reaped)
	}
}
