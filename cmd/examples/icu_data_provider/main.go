// Command icu_data_provider serves ICU data tables to other applications.
// Its arguments are table files or directories of *.dat files; tables are
// keyed by SHA-1.
package main

import (
	"context"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/application"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/icudata"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/protocol"
)

type icuProvider struct {
	logger   *zap.Logger
	provider *icudata.Provider
}

func (p *icuProvider) Initialize(app *application.App) {
	p.provider = icudata.NewProvider(app.Core, app.Loop, p.logger)
	for _, path := range tableFiles(app.Args(), p.logger) {
		table, err := os.ReadFile(path)
		if err != nil {
			p.logger.Warn("Skipping table", zap.String("path", path), zap.Error(err))
			continue
		}
		key := p.provider.Add(table)
		p.logger.Info("Table loaded", zap.String("path", path), zap.String("sha1", key), zap.Int("bytes", len(table)))
	}
}

func (p *icuProvider) AcceptConnection(app *application.App, conn application.Connection) {
	if !conn.Services.IsValid() {
		return
	}
	binders := map[string]application.Binder{}
	if p.provider != nil {
		binders[protocol.ICUDataProviderService] = p.provider.Bind
	}
	if err := application.ServeServices(app.Loop, app.Core, conn.Services, binders, p.logger); err != nil {
		p.logger.Warn("Cannot serve services", zap.Error(err))
	}
}

// tableFiles expands directories in args into their *.dat files.
func tableFiles(args []string, logger *zap.Logger) []string {
	var (
		mu    sync.Mutex
		files []string
	)
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			logger.Warn("Skipping argument", zap.String("arg", arg), zap.Error(err))
			continue
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = fastwalk.Walk(&fastwalk.Config{Follow: false}, arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || filepath.Ext(path) != ".dat" {
				return nil
			}
			mu.Lock()
			files = append(files, path)
			mu.Unlock()
			return nil
		})
		if err != nil {
			logger.Warn("Failed to walk table directory", zap.String("dir", arg), zap.Error(err))
		}
	}
	return files
}

func main() {
	logger := logging.NewDefault()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx, &icuProvider{logger: logger.Named("icu")}, logger.Logger); err != nil {
		logger.Error("icu_data_provider failed", zap.Error(err))
		os.Exit(1)
	}
}
