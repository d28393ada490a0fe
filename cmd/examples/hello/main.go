// Command hello is a minimal application. It logs its arguments and, given
// --icu=<sha1>, maps that ICU table from mojo:icu_data_provider.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/application"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/icudata"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/logging"
)

type hello struct {
	ctx    context.Context
	logger *zap.Logger
}

func (h *hello) Initialize(app *application.App) {
	greeting := "hello"
	var icuHash string
	for _, arg := range app.Args() {
		if v, ok := strings.CutPrefix(arg, "--greeting="); ok {
			greeting = v
		}
		if v, ok := strings.CutPrefix(arg, "--icu="); ok {
			icuHash = v
		}
	}
	h.logger.Info(greeting, zap.String("url", app.URL()), zap.Strings("args", app.Args()))

	if icuHash != "" && app.Shell() != nil {
		go h.loadICU(app, icuHash)
	}
}

func (h *hello) loadICU(app *application.App, hash string) {
	ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
	defer cancel()

	data, err := icudata.Initialize(ctx, app.Core, app.Shell(), hash)
	if err != nil {
		h.logger.Warn("ICU data unavailable", zap.String("sha1", hash), zap.Error(err))
		return
	}
	h.logger.Info("ICU data mapped", zap.String("sha1", hash), zap.Int("bytes", len(data.Bytes())))
	if err := data.Release(); err != nil {
		h.logger.Warn("Failed to release ICU data", zap.Error(err))
	}
}

// AcceptConnection refuses every service; hello exports none.
func (h *hello) AcceptConnection(app *application.App, conn application.Connection) {
	h.logger.Info("Connection", zap.String("from", conn.RequestorURL))
	if !conn.Services.IsValid() {
		return
	}
	if err := application.ServeServices(app.Loop, app.Core, conn.Services, nil, h.logger); err != nil {
		h.logger.Warn("Cannot serve services", zap.Error(err))
	}
}

func main() {
	logger := logging.NewDefault()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx, &hello{ctx: ctx, logger: logger.Named("hello")}, logger.Logger); err != nil {
		logger.Error("hello failed", zap.Error(err))
		os.Exit(1)
	}
}
