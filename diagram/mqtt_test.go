package diagram

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestMQTTClient(t *testing.T, handler CommandHandler) (*MQTTClient, *MockClient) {
	t.Helper()
	mock := NewMockClient()
	c := newMQTTClient(mock, MQTTConfig{Broker: "tcp://test:1883", PublishPrefix: "test"}, handler, nil)
	mock.SetOnConnect(c.onConnect)
	t.Cleanup(c.Disconnect)
	return c, mock
}

// ---------------------------------------------------------------------------
// Connection
// ---------------------------------------------------------------------------

func TestConnectMQTT_DisabledWithoutBroker(t *testing.T) {
	c, err := ConnectMQTT(MQTTConfig{}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestConnectMQTT_RequiresPrefix(t *testing.T) {
	_, err := ConnectMQTT(MQTTConfig{Broker: "tcp://localhost:1883"}, nil, nil)
	assert.Error(t, err)
}

func TestMQTTClient_ConnectSubscribes(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, mock := newTestMQTTClient(t, func(Command) (CommandResult, error) { return CommandResult{}, nil })
	assert.Equal(t, "test/command", c.CommandTopic())
	assert.Equal(t, "test/command/result", c.ResultTopic())

	c.connectWithRetry()
	assert.True(t, c.IsConnected())
	assert.True(t, mock.Deliver("test/command", []byte(`{"op":"noop"}`)), "command topic should be subscribed")

	c.Disconnect()
	assert.False(t, c.IsConnected())
	assert.False(t, mock.IsConnected())
}

func TestMQTTClient_RetryStopsOnDisconnect(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, mock := newTestMQTTClient(t, nil)
	mock.SetConnectError(errors.New("refused"))

	finished := make(chan struct{})
	go func() {
		c.connectWithRetry()
		close(finished)
	}()
	c.Disconnect()
	<-finished
	assert.False(t, c.IsConnected())
}

func TestMQTTClient_ConnectionLost(t *testing.T) {
	c, mock := newTestMQTTClient(t, nil)
	c.connectWithRetry()
	require.True(t, c.IsConnected())

	c.onConnectionLost(mock, errors.New("EOF"))
	assert.False(t, c.IsConnected())
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func TestMQTTClient_ExecutesCommands(t *testing.T) {
	e := newTestEngine(t, 1)
	c, mock := newTestMQTTClient(t, e.Execute)
	c.connectWithRetry()

	payload, err := json.Marshal(Command{Op: CmdSetProgress, Group: 1, Slice: 2, Value: 4})
	require.NoError(t, err)
	require.True(t, mock.Deliver(c.CommandTopic(), payload))

	msg, ok := mock.LastOn(c.ResultTopic())
	require.True(t, ok, "a result should be published")
	assert.False(t, msg.Retain)

	var res CommandResult
	require.NoError(t, json.Unmarshal(msg.Payload, &res))
	assert.True(t, res.Applied)
	assert.Equal(t, 1, res.Indicator)
	assert.Equal(t, uint64(1), res.Version)

	ind, _ := e.Active()
	assert.Equal(t, 4, ind.Groups[1].Slices[2].Progress)
}

func TestMQTTClient_CommandErrors(t *testing.T) {
	e := newTestEngine(t, 1)
	c, mock := newTestMQTTClient(t, e.Execute)
	c.connectWithRetry()

	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"op":`},
		{"unknown op", `{"op":"explode"}`},
		{"unknown indicator", `{"op":"setProgress","indicator":9}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, mock.Deliver(c.CommandTopic(), []byte(tt.payload)))
			msg, ok := mock.LastOn(c.ResultTopic())
			require.True(t, ok)

			var body map[string]any
			require.NoError(t, json.Unmarshal(msg.Payload, &body))
			assert.NotEmpty(t, body["error"])
		})
	}
	assert.Equal(t, uint64(0), e.Version())
}

func TestMQTTClient_NoHandlerSkipsSubscribe(t *testing.T) {
	c, mock := newTestMQTTClient(t, nil)
	c.connectWithRetry()
	assert.True(t, c.IsConnected())
	assert.False(t, mock.Deliver(c.CommandTopic(), []byte(`{}`)))
}
