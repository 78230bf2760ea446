package diagram

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_NotConnected(t *testing.T) {
	ctx := context.Background()
	ws := sampleWorkspace(t)

	p := NewPublisher(nil, "", nil)
	assert.ErrorIs(t, p.Save(ctx, ws), ErrNotConnected)
	assert.Equal(t, "mqtt:"+DefaultPublishPrefix, p.Name())

	mock := NewMockClient()
	p = NewPublisher(mock, "office", nil)
	assert.ErrorIs(t, p.Save(ctx, ws), ErrNotConnected)
	assert.Empty(t, mock.Published())
}

func TestPublisher_PublishesWorkspaceAndSummaries(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	p := NewPublisher(mock, "office", nil)
	ws := sampleWorkspace(t)

	require.NoError(t, p.Save(context.Background(), ws))

	msgs := mock.Published()
	require.Len(t, msgs, 3)
	assert.Equal(t, "office/workspace", msgs[0].Topic)
	assert.Equal(t, "office/indicators/1", msgs[1].Topic)
	assert.Equal(t, "office/indicators/2", msgs[2].Topic)
	for _, m := range msgs {
		assert.True(t, m.Retain, "%s should be retained", m.Topic)
		assert.Equal(t, byte(0), m.QoS)
	}

	var doc Workspace
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &doc))
	assert.Equal(t, ws.Version, doc.Version)
	assert.Len(t, doc.Indicators, 2)

	var summary IndicatorSummary
	require.NoError(t, json.Unmarshal(msgs[2].Payload, &summary))
	assert.Equal(t, 2, summary.ID)
	assert.Equal(t, "Second", summary.Name)
	assert.Equal(t, 18, summary.TotalSlices)
	assert.Equal(t, 5, summary.TotalProgress)
	assert.Equal(t, ws.Version, summary.Version)
	assert.NotZero(t, summary.Timestamp)
}

func TestPublisher_Settings(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	p := NewPublisher(mock, "office", nil)
	p.SetQoS(1)
	p.SetQoS(7)
	p.SetRetain(false)

	require.NoError(t, p.Save(context.Background(), sampleWorkspace(t)))
	msg, ok := mock.LastOn(p.WorkspaceTopic())
	require.True(t, ok)
	assert.Equal(t, byte(1), msg.QoS, "invalid QoS values are ignored")
	assert.False(t, msg.Retain)
}

func TestPublisher_PublishError(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	boom := errors.New("broker rejected")
	mock.SetPublishError(boom)

	p := NewPublisher(mock, "office", nil)
	err := p.Save(context.Background(), sampleWorkspace(t))
	assert.ErrorIs(t, err, boom)
}

func TestPublisher_AsSyncerSink(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	p := NewPublisher(mock, "office", nil)

	s := NewSyncer(0, nil, p)
	s.Notify(sampleWorkspace(t))
	require.NoError(t, s.Close(context.Background()))

	_, ok := mock.LastOn("office/indicators/2")
	assert.True(t, ok)
}
