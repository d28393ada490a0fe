package app

import (
	"sort"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/launcher"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// Launcher starts the application behind name with request as its
// application pipe. It consumes request.
type Launcher interface {
	Launch(owner launcher.ContentHandlerStarter, name string, request system.Handle) (bool, launcher.Process)
}

// Table owns the running instances, keyed by name. It is not safe for
// concurrent use.
type Table struct {
	core     *system.Core
	launcher Launcher
	logger   *zap.Logger

	instances map[string]*Instance
	// launching holds names whose launch is in progress further up the
	// stack, so a content handler chain that loops back fails.
	launching map[string]struct{}
}

// NewTable creates an empty table.
func NewTable(core *system.Core, l Launcher, logger *zap.Logger) *Table {
	return &Table{
		core:      core,
		launcher:  l,
		logger:    logger,
		instances: make(map[string]*Instance),
		launching: make(map[string]struct{}),
	}
}

// GetOrStartApplication returns the instance for name, launching it if
// there is none. The returned instance may still be uninitialized. nil
// means the launch failed and nothing was recorded.
func (t *Table) GetOrStartApplication(owner launcher.ContentHandlerStarter, name string) *Instance {
	if inst, ok := t.instances[name]; ok {
		return inst
	}
	if _, busy := t.launching[name]; busy {
		t.logger.Warn("Application is already being launched", zap.String("name", name))
		return nil
	}

	local, remote, err := t.core.CreateMessagePipe(nil)
	if err != nil {
		t.logger.Error("Failed to create application pipe", zap.String("name", name), zap.Error(err))
		return nil
	}

	t.launching[name] = struct{}{}
	ok, process := t.launcher.Launch(owner, name, remote)
	delete(t.launching, name)

	if !ok {
		t.core.Close(local)
		return nil
	}

	inst := newInstance(name, protocol.NewEndpoint(t.core, local), process)
	t.instances[name] = inst
	return inst
}

// StopApplication removes and destroys the instance for name, if any.
func (t *Table) StopApplication(name string) {
	inst, ok := t.instances[name]
	if !ok {
		return
	}
	delete(t.instances, name)
	inst.destroy()
}

// Lookup returns the instance for name or nil.
func (t *Table) Lookup(name string) *Instance {
	return t.instances[name]
}

// Len returns the number of instances.
func (t *Table) Len() int {
	return len(t.instances)
}

// Names returns the instance names in order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.instances))
	for name := range t.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
