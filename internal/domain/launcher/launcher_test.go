package launcher

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

type fakeProcess struct{ done chan struct{} }

func (p *fakeProcess) Pid() int              { return 4242 }
func (p *fakeProcess) Kill() error           { return nil }
func (p *fakeProcess) Done() <-chan struct{} { return p.done }
func (p *fakeProcess) ExitCode() int         { return -1 }

type fakeSpawner struct {
	core  *system.Core
	paths []string
	err   error
}

func (s *fakeSpawner) Spawn(path string, request system.Handle) (Process, error) {
	s.paths = append(s.paths, path)
	s.core.Close(request)
	if s.err != nil {
		return nil, s.err
	}
	return &fakeProcess{done: make(chan struct{})}, nil
}

type delegation struct {
	handler  string
	response *Response
	request  system.Handle
}

type fakeOwner struct {
	calls []delegation
}

func (o *fakeOwner) StartApplicationUsingContentHandler(handler string, response *Response, request system.Handle) {
	o.calls = append(o.calls, delegation{handler, response, request})
}

type fixture struct {
	core     *system.Core
	root     string
	spawner  *fakeSpawner
	owner    *fakeOwner
	metrics  *monitoring.Metrics
	launcher *Launcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core := system.NewCore()
	root := t.TempDir() + string(filepath.Separator)
	f := &fixture{
		core:    core,
		root:    root,
		spawner: &fakeSpawner{core: core},
		owner:   &fakeOwner{},
		metrics: monitoring.NewMetrics(),
	}
	f.launcher = New(core, NewResolver(DefaultScheme, root), f.spawner, zaptest.NewLogger(t), f.metrics)
	return f
}

func (f *fixture) writeApp(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
	return path
}

func (f *fixture) request(t *testing.T) (system.Handle, system.Handle) {
	t.Helper()
	local, remote, err := f.core.CreateMessagePipe(nil)
	require.NoError(t, err)
	return local, remote
}

func TestResolveName(t *testing.T) {
	r := DefaultResolver()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "mojo:hello", "/boot/apps/hello"},
		{"nested", "mojo:tools/echo", "/boot/apps/tools/echo"},
		{"empty", "", ""},
		{"bare scheme", "mojo:", ""},
		{"other scheme", "http://example.com/app", ""},
		{"scheme not at start", "xmojo:hello", ""},
		{"case sensitive", "MOJO:hello", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ResolveName(tt.in))
		})
	}
}

func TestParseDirective(t *testing.T) {
	tests := []struct {
		name    string
		window  string
		handler string
		ok      bool
	}{
		{"handler", "#!mojo mojo:text_handler\nbody", "mojo:text_handler", true},
		{"untrimmed", "#!mojo  spaced \nbody", " spaced ", true},
		{"empty handler", "#!mojo \n", "", true},
		{"carriage return kept", "#!mojo h\r\n", "h\r", true},
		{"no newline", "#!mojo mojo:text_handler", "", false},
		{"wrong magic", "#!/bin/sh\n", "", false},
		{"magic not at start", " #!mojo h\n", "", false},
		{"empty file", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, ok := parseDirective([]byte(tt.window))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.handler, handler)
		})
	}
}

func TestDirectiveNewlineBeyondWindow(t *testing.T) {
	f := newFixture(t)
	long := Magic + strings.Repeat("h", MaxShebangLength) + "\n"
	path := f.writeApp(t, "long", long)

	_, ok := ReadDirective(path)
	assert.False(t, ok)

	fits := Magic + strings.Repeat("h", MaxShebangLength-len(Magic)-1) + "\n"
	path = f.writeApp(t, "fits", fits)
	handler, ok := ReadDirective(path)
	assert.True(t, ok)
	assert.Len(t, handler, MaxShebangLength-len(Magic)-1)
}

func TestTryContentHandlerDelegates(t *testing.T) {
	f := newFixture(t)
	content := "#!mojo mojo:text_handler\nhello, world\n"
	path := f.writeApp(t, "greeting", content)
	local, remote := f.request(t)
	defer f.core.Close(local)

	ok, rest := f.launcher.TryContentHandler(f.owner, path, remote)
	require.True(t, ok)
	assert.False(t, rest.IsValid())

	require.Len(t, f.owner.calls, 1)
	call := f.owner.calls[0]
	assert.Equal(t, "mojo:text_handler", call.handler)
	assert.Equal(t, remote, call.request)
	assert.Equal(t, "file://"+path, call.response.URL)
	assert.Equal(t, 200, call.response.StatusCode)
	assert.True(t, strings.HasPrefix(call.response.MimeType, "text/"), call.response.MimeType)

	body, err := io.ReadAll(system.NewConsumerReader(f.core, call.response.Body))
	require.NoError(t, err)
	assert.Equal(t, content, string(body))
}

func TestTryContentHandlerLeavesRequestAlone(t *testing.T) {
	f := newFixture(t)
	plain := f.writeApp(t, "plain", "\x7fELF not a directive")
	dir := filepath.Join(f.root, "dir")
	require.NoError(t, os.Mkdir(dir, 0o755))

	for _, path := range []string{plain, dir, filepath.Join(f.root, "missing")} {
		local, remote := f.request(t)

		ok, rest := f.launcher.TryContentHandler(f.owner, path, remote)
		assert.False(t, ok, path)
		assert.Equal(t, remote, rest, path)

		_, err := f.core.GetHandleType(rest)
		assert.NoError(t, err, "request must stay open")
		f.core.Close(local)
		f.core.Close(rest)
	}
	assert.Empty(t, f.owner.calls)
}

func TestLaunchUnresolvedConsumesRequest(t *testing.T) {
	f := newFixture(t)
	local, remote := f.request(t)
	defer f.core.Close(local)

	ok, proc := f.launcher.Launch(f.owner, "http://nowhere", remote)
	assert.False(t, ok)
	assert.Nil(t, proc)
	assert.Empty(t, f.spawner.paths)

	_, err := f.core.GetHandleType(remote)
	assert.ErrorIs(t, err, system.ErrInvalidArgument)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Launches.WithLabelValues(monitoring.StrategyUnresolved, monitoring.ResultFailure)))
}

func TestLaunchPrefersContentHandler(t *testing.T) {
	f := newFixture(t)
	f.writeApp(t, "doc", "#!mojo mojo:viewer\ncontent")
	local, remote := f.request(t)
	defer f.core.Close(local)

	ok, proc := f.launcher.Launch(f.owner, "mojo:doc", remote)
	assert.True(t, ok)
	assert.Nil(t, proc)
	assert.Empty(t, f.spawner.paths)
	require.Len(t, f.owner.calls, 1)
	assert.Equal(t, "mojo:viewer", f.owner.calls[0].handler)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Launches.WithLabelValues(monitoring.StrategyContentHandler, monitoring.ResultSuccess)))
}

func TestLaunchProcess(t *testing.T) {
	f := newFixture(t)
	path := f.writeApp(t, "hello", "\x7fELF")
	local, remote := f.request(t)
	defer f.core.Close(local)

	ok, proc := f.launcher.Launch(f.owner, "mojo:hello", remote)
	assert.True(t, ok)
	require.NotNil(t, proc)
	assert.Equal(t, []string{path}, f.spawner.paths)
	assert.Empty(t, f.owner.calls)
}

func TestLaunchProcessFailure(t *testing.T) {
	f := newFixture(t)
	f.spawner.err = errors.New("no such image")
	local, remote := f.request(t)
	defer f.core.Close(local)

	ok, proc := f.launcher.Launch(f.owner, "mojo:absent", remote)
	assert.False(t, ok)
	assert.Nil(t, proc)
	assert.Equal(t, []string{f.root + "absent"}, f.spawner.paths)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Launches.WithLabelValues(monitoring.StrategyProcess, monitoring.ResultFailure)))
}

func TestCatalog(t *testing.T) {
	f := newFixture(t)
	f.writeApp(t, "hello", "\x7fELF")
	f.writeApp(t, "viewers/text", "#!mojo mojo:text_handler\n")
	f.writeApp(t, "viewers/deep/image", "\x89PNG")

	entries, err := f.launcher.Catalog(context.Background(), "")
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"mojo:hello", "mojo:viewers/deep/image", "mojo:viewers/text"}, names)

	entries, err = f.launcher.Catalog(context.Background(), "viewers/*")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "mojo:viewers/text", entries[0].Name)
	assert.Equal(t, "mojo:text_handler", entries[0].ContentHandler)

	entries, err = f.launcher.Catalog(context.Background(), "viewers/**")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = f.launcher.Catalog(context.Background(), "[")
	assert.Error(t, err)
}

func TestCatalogHonorsCancellation(t *testing.T) {
	f := newFixture(t)
	f.writeApp(t, "hello", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.launcher.Catalog(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
