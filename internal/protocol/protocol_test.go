package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

func TestInitializeArgsNilAndEmptyDiffer(t *testing.T) {
	absent, err := Encode(MethodInitialize, &Initialize{Shell: 0, URL: "mojo:hello"})
	require.NoError(t, err)
	empty, err := Encode(MethodInitialize, &Initialize{Shell: 0, Args: []string{}, URL: "mojo:hello"})
	require.NoError(t, err)

	env, err := Decode(absent)
	require.NoError(t, err)
	var got Initialize
	require.NoError(t, env.Bind(&got))
	assert.Nil(t, got.Args)

	env, err = Decode(empty)
	require.NoError(t, err)
	got = Initialize{}
	require.NoError(t, env.Bind(&got))
	assert.NotNil(t, got.Args)
	assert.Empty(t, got.Args)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"body":{}}`))
	assert.Error(t, err)

	env, err := Decode([]byte(`{"method":"Application.RequestQuit"}`))
	require.NoError(t, err)
	assert.Equal(t, MethodRequestQuit, env.Method)
	assert.Error(t, env.Bind(&Initialize{}))
}

func TestEndpointSendReceive(t *testing.T) {
	core := system.NewCore()
	a, b, err := core.CreateMessagePipe(nil)
	require.NoError(t, err)
	client, server := NewEndpoint(core, a), NewEndpoint(core, b)

	x, y, err := core.CreateMessagePipe(nil)
	require.NoError(t, err)
	handles, idx := Attach(nil, y)
	require.NoError(t, client.Send(MethodConnectToApplication, &ConnectToApplication{
		ApplicationURL: "mojo:target",
		Services:       idx,
	}, handles...))

	env, got, err := server.Receive()
	require.NoError(t, err)
	assert.Equal(t, MethodConnectToApplication, env.Method)
	var req ConnectToApplication
	require.NoError(t, env.Bind(&req))
	assert.Equal(t, "mojo:target", req.ApplicationURL)

	services := HandleAt(got, req.Services)
	require.True(t, services.IsValid())
	require.NoError(t, core.Close(x))
	_, err = core.Wait(services, system.SignalPeerClosed, 0)
	assert.NoError(t, err)

	_, _, err = server.Receive()
	assert.ErrorIs(t, err, system.ErrShouldWait)
}

func TestSendClosesHandlesOnFailure(t *testing.T) {
	core := system.NewCore()
	a, b, _ := core.CreateMessagePipe(nil)
	require.NoError(t, core.Close(b))

	x, y, _ := core.CreateMessagePipe(nil)
	err := NewEndpoint(core, a).Send(MethodAcceptConnection, &AcceptConnection{Services: 0}, y)
	assert.ErrorIs(t, err, system.ErrFailedPrecondition)

	_, err = core.Wait(x, system.SignalPeerClosed, 0)
	assert.NoError(t, err)
}

func TestHandleAt(t *testing.T) {
	hs := []system.Handle{7, 9}
	assert.Equal(t, system.Handle(9), HandleAt(hs, 1))
	assert.Equal(t, system.HandleInvalid, HandleAt(hs, NoHandle))
	assert.Equal(t, system.HandleInvalid, HandleAt(hs, 2))

	_, idx := Attach(hs, system.HandleInvalid)
	assert.Equal(t, NoHandle, idx)
}
