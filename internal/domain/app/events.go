package app

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/shared/id"
)

// Event is something the manager reacts to on its loop.
type Event interface {
	event()
}

// InstanceTerminated reports that the application pipe of an instance
// closed. ID pins the incarnation: an event for an instance that has since
// been replaced under the same name is ignored.
type InstanceTerminated struct {
	Name string
	ID   id.InstanceID
}

func (InstanceTerminated) event() {}

// Post queues ev for HandleEvent on the loop. Safe from any goroutine.
func (m *Manager) Post(ev Event) {
	m.loop.PostTask(func() { m.HandleEvent(ev) })
}

// HandleEvent applies ev. Call it on the loop goroutine.
func (m *Manager) HandleEvent(ev Event) {
	switch ev := ev.(type) {
	case InstanceTerminated:
		inst := m.table.Lookup(ev.Name)
		if inst == nil || inst.ID() != ev.ID {
			m.logger.Debug("Ignoring stale termination",
				zap.String("name", ev.Name),
				zap.Stringer("id", ev.ID))
			return
		}
		m.table.StopApplication(ev.Name)
		m.metrics.IncTerminations()
		m.metrics.SetInstancesActive(m.table.Len())
		m.logger.Info("Application terminated",
			zap.String("name", ev.Name),
			zap.Stringer("id", ev.ID))
		if m.onTerminated != nil {
			m.onTerminated(ev)
		}
		m.notifyIfDrained()
	default:
		m.logger.Warn("Unhandled event", zap.Any("event", ev))
	}
}
