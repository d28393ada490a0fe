// Command text_handler is a content handler for "#!mojo mojo:text_handler"
// documents. Each document becomes an application on the handler's loop.
package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/application"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/launcher"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

type textHandler struct {
	logger *zap.Logger
}

func (h *textHandler) Initialize(app *application.App) {
	h.logger.Info("Content handler ready", zap.String("url", app.URL()))
}

func (h *textHandler) AcceptConnection(app *application.App, conn application.Connection) {
	if !conn.Services.IsValid() {
		return
	}
	binders := map[string]application.Binder{
		protocol.ContentHandlerService: func(pipe system.Handle) {
			if err := application.ServeContentHandler(app.Loop, app.Core, pipe, h.starter(app), h.logger); err != nil {
				h.logger.Warn("Cannot serve content handler", zap.Error(err))
			}
		},
	}
	if err := application.ServeServices(app.Loop, app.Core, conn.Services, binders, h.logger); err != nil {
		h.logger.Warn("Cannot serve services", zap.Error(err))
	}
}

// starter reads the body off the loop and then runs the document on it.
func (h *textHandler) starter(app *application.App) application.StartFunc {
	return func(request system.Handle, response protocol.URLResponse, body system.Handle) {
		go func() {
			stats := documentStats{}
			if body.IsValid() {
				r := system.NewConsumerReader(app.Core, body)
				stats = measure(r)
				r.Close()
			}
			app.Loop.PostTask(func() {
				doc := &document{url: response.URL, mime: response.MimeType, stats: stats, logger: h.logger}
				docApp := application.New(app.Core, app.Loop, request, doc, h.logger.With(zap.String("document", response.URL)))
				if err := docApp.Serve(doc.closed); err != nil {
					h.logger.Warn("Cannot run document", zap.String("url", response.URL), zap.Error(err))
				}
			})
		}()
	}
}

type documentStats struct {
	Lines int
	Words int
	Bytes int
}

// measure counts the document below the directive line.
func measure(r io.Reader) documentStats {
	var stats documentStats
	sc := bufio.NewScanner(r)
	first := true
	for sc.Scan() {
		line := sc.Bytes()
		if first {
			first = false
			if bytes.HasPrefix(line, []byte(launcher.Magic)) {
				continue
			}
		}
		stats.Lines++
		stats.Words += len(bytes.Fields(line))
		stats.Bytes += len(line) + 1
	}
	return stats
}

type document struct {
	url    string
	mime   string
	stats  documentStats
	logger *zap.Logger
}

func (d *document) Initialize(app *application.App) {
	d.logger.Info("Displaying document",
		zap.String("url", d.url),
		zap.String("as", app.URL()),
		zap.String("mime", d.mime),
		zap.Int("lines", d.stats.Lines),
		zap.Int("words", d.stats.Words),
		zap.Int("bytes", d.stats.Bytes))
}

func (d *document) AcceptConnection(app *application.App, conn application.Connection) {
	if conn.Services.IsValid() {
		app.Core.Close(conn.Services)
	}
}

func (d *document) closed() {
	d.logger.Info("Document closed", zap.String("url", d.url))
}

func main() {
	logger := logging.NewDefault()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx, &textHandler{logger: logger.Named("text_handler")}, logger.Logger); err != nil {
		logger.Error("text_handler failed", zap.Error(err))
		os.Exit(1)
	}
}
