package application

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/launcher"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/loop"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/transport"
)

// StartupRequest adopts the application request pipe the launcher
// installed at launcher.StartupFD.
func StartupRequest(core *system.Core, logger *zap.Logger) (system.Handle, error) {
	f := os.NewFile(uintptr(launcher.StartupFD), "application-request")
	h, err := transport.Import(core, f, logger)
	if err != nil {
		return system.HandleInvalid, fmt.Errorf("adopt startup handle: %w", err)
	}
	return h, nil
}

// Run serves handler over the startup request until the manager lets the
// application go or ctx ends.
func Run(ctx context.Context, handler Handler, logger *zap.Logger) error {
	core := system.NewCore()
	lp, err := loop.New(core, logger.Named("loop"))
	if err != nil {
		return err
	}
	defer lp.Close()

	request, err := StartupRequest(core, logger.Named("transport"))
	if err != nil {
		return err
	}

	app := New(core, lp, request, handler, logger)
	lp.PostTask(func() {
		if err := app.Start(); err != nil {
			logger.Error("Cannot serve application pipe", zap.Error(err))
			lp.Quit()
		}
	})

	if err := lp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
