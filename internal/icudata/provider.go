package icudata

import (
	"crypto/sha1"
	"encoding/hex"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/application"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/loop"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// Provider serves ICU data tables keyed by their SHA-1. Use it from the
// loop goroutine.
type Provider struct {
	core   *system.Core
	lp     *loop.Loop
	tables map[string][]byte
	logger *zap.Logger
}

// NewProvider creates an empty provider.
func NewProvider(core *system.Core, lp *loop.Loop, logger *zap.Logger) *Provider {
	return &Provider{
		core:   core,
		lp:     lp,
		tables: make(map[string][]byte),
		logger: logger,
	}
}

// Add registers table and returns its hex SHA-1.
func (p *Provider) Add(table []byte) string {
	sum := sha1.Sum(table)
	key := hex.EncodeToString(sum[:])
	p.tables[key] = table
	return key
}

// Bind serves one ICUDataProvider pipe. It fits application.Binder.
func (p *Provider) Bind(pipe system.Handle) {
	ep := protocol.NewEndpoint(p.core, pipe)
	err := application.Serve(p.lp, ep, func(env *protocol.Envelope, handles []system.Handle) bool {
		for _, h := range handles {
			p.core.Close(h)
		}
		if env.Method != protocol.MethodICUDataWithSha1 {
			p.logger.Warn("Unknown icu data method", zap.String("method", env.Method))
			return true
		}
		var req protocol.ICUDataRequest
		if err := env.Bind(&req); err != nil {
			return true
		}
		p.answer(ep, req.Sha1)
		return true
	}, nil, p.logger)
	if err != nil {
		p.logger.Warn("Cannot serve icu data pipe", zap.Error(err))
		ep.Close()
	}
}

func (p *Provider) answer(ep protocol.Endpoint, key string) {
	table, ok := p.tables[key]
	if !ok {
		p.logger.Info("No icu data table", zap.String("sha1", key))
		ep.Send(protocol.MethodICUDataResponse, protocol.ICUDataResponse{Found: false, Buffer: protocol.NoHandle})
		return
	}
	buffer, err := p.share(table)
	if err != nil {
		p.logger.Error("Cannot share icu data", zap.String("sha1", key), zap.Error(err))
		ep.Send(protocol.MethodICUDataResponse, protocol.ICUDataResponse{Found: false, Buffer: protocol.NoHandle})
		return
	}
	if err := ep.Send(protocol.MethodICUDataResponse, protocol.ICUDataResponse{Found: true, Buffer: 0}, buffer); err != nil {
		p.logger.Debug("Requestor went away", zap.Error(err))
	}
}

func (p *Provider) share(table []byte) (system.Handle, error) {
	buffer, err := p.core.CreateSharedBuffer(uint64(len(table)), nil)
	if err != nil {
		return system.HandleInvalid, err
	}
	m, err := p.core.MapBuffer(buffer, 0, uint64(len(table)), system.MapBufferFlagNone)
	if err != nil {
		p.core.Close(buffer)
		return system.HandleInvalid, err
	}
	copy(m.Bytes(), table)
	if err := p.core.UnmapBuffer(m); err != nil {
		p.core.Close(buffer)
		return system.HandleInvalid, err
	}
	return buffer, nil
}
