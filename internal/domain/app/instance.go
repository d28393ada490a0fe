package app

import (
	"time"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/launcher"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/loop"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/shared/id"
)

// Instance is one running application as seen by the manager.
type Instance struct {
	name        string
	id          id.InstanceID
	application protocol.Endpoint
	process     launcher.Process

	contentHandler protocol.Endpoint
	shell          *Shell
	watch          *loop.Waiter

	initialized bool
	args        []string
	createdAt   time.Time
}

func newInstance(name string, application protocol.Endpoint, process launcher.Process) *Instance {
	return &Instance{
		name:        name,
		id:          id.NewInstanceID(),
		application: application,
		process:     process,
		createdAt:   time.Now(),
	}
}

func (i *Instance) Name() string { return i.name }

func (i *Instance) ID() id.InstanceID { return i.id }

// Initialized reports whether Application.Initialize has been sent.
func (i *Instance) Initialized() bool { return i.initialized }

// Args returns the arguments sent with Initialize. nil means none were
// configured.
func (i *Instance) Args() []string { return i.args }

// Process is nil when the application runs inside a content handler.
func (i *Instance) Process() launcher.Process { return i.process }

// Application returns the manager's end of the application pipe.
func (i *Instance) Application() protocol.Endpoint { return i.application }

// Info is a point-in-time description of an instance.
type Info struct {
	Name        string        `json:"name"`
	ID          id.InstanceID `json:"id"`
	Pid         int           `json:"pid,omitempty"`
	Initialized bool          `json:"initialized"`
	Args        []string      `json:"args"`
	Delegated   bool          `json:"delegated"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Info snapshots the instance.
func (i *Instance) Info() Info {
	info := Info{
		Name:        i.name,
		ID:          i.id,
		Initialized: i.initialized,
		Args:        append([]string(nil), i.args...),
		Delegated:   i.process == nil,
		CreatedAt:   i.createdAt,
	}
	if i.process != nil {
		info.Pid = i.process.Pid()
	}
	return info
}

// destroy releases everything the instance holds. The application sees
// its pipe close; a process that is still running is killed.
func (i *Instance) destroy() {
	i.watch.Cancel()
	i.watch = nil
	if i.shell != nil {
		i.shell.Close()
	}
	i.contentHandler.Close()
	i.application.Close()
	if i.process != nil {
		i.process.Kill()
	}
}
