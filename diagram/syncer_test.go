package diagram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// memorySink records every workspace it is given
type memorySink struct {
	name string
	err  error

	mu    sync.Mutex
	saved []Workspace
}

func (m *memorySink) Name() string { return m.name }

func (m *memorySink) Save(_ context.Context, ws Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, ws)
	return nil
}

func (m *memorySink) Saved() []Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Workspace(nil), m.saved...)
}

func versionedWorkspace(v uint64) Workspace {
	ws := NewWorkspace(defaultTemplateConfig(1))
	ws.Version = v
	return ws
}

// ---------------------------------------------------------------------------
// Syncer
// ---------------------------------------------------------------------------

func TestSyncer_DebouncesToLatest(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &memorySink{name: "mem"}
	s := NewSyncer(20*time.Millisecond, nil, sink)

	for v := uint64(1); v <= 5; v++ {
		s.Notify(versionedWorkspace(v))
	}

	require.Eventually(t, func() bool { return len(sink.Saved()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(5), sink.Saved()[0].Version)
	assert.False(t, s.Pending())
	assert.Equal(t, 1, s.Saves())

	require.NoError(t, s.Close(context.Background()))
	assert.Len(t, sink.Saved(), 1, "close without pending changes writes nothing")
}

func TestSyncer_SteadyStreamStillSaves(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &memorySink{name: "mem"}
	s := NewSyncer(20*time.Millisecond, nil, sink)

	// changes arrive faster than the interval and never pause
	stop := time.Now().Add(2 * time.Second)
	var v uint64
	for len(sink.Saved()) == 0 && time.Now().Before(stop) {
		v++
		s.Notify(versionedWorkspace(v))
		time.Sleep(5 * time.Millisecond)
	}
	require.NotEmpty(t, sink.Saved(), "a continuous stream must not postpone writes forever")
	assert.Greater(t, v, uint64(1))
	assert.LessOrEqual(t, sink.Saved()[0].Version, v)

	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, v, sink.Saved()[len(sink.Saved())-1].Version)
}

func TestSyncer_CloseFlushesPending(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &memorySink{name: "mem"}
	s := NewSyncer(time.Hour, nil, sink)
	s.Notify(versionedWorkspace(7))
	assert.True(t, s.Pending())

	require.NoError(t, s.Close(context.Background()))
	require.Len(t, sink.Saved(), 1)
	assert.Equal(t, uint64(7), sink.Saved()[0].Version)

	require.NoError(t, s.Close(context.Background()), "close is idempotent")
}

func TestSyncer_FailingSinkDoesNotBlockOthers(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("disk full")
	bad := &memorySink{name: "bad", err: boom}
	good := &memorySink{name: "good"}
	s := NewSyncer(time.Hour, nil, bad, good)
	defer s.Close(context.Background())

	s.Notify(versionedWorkspace(1))
	err := s.Flush(context.Background())
	require.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.LastError(), boom)
	assert.Len(t, good.Saved(), 1)

	s.Notify(versionedWorkspace(2))
	bad.mu.Lock()
	bad.err = nil
	bad.mu.Unlock()
	require.NoError(t, s.Flush(context.Background()))
	assert.NoError(t, s.LastError())
}

func TestSyncer_FlushWithoutChanges(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &memorySink{name: "mem"}
	s := NewSyncer(0, nil, sink)
	require.NoError(t, s.Flush(context.Background()))
	require.NoError(t, s.Close(context.Background()))
	assert.Empty(t, sink.Saved())
	assert.Equal(t, 0, s.Saves())
}

func TestSyncer_EngineIntegration(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &memorySink{name: "mem"}
	s := NewSyncer(time.Hour, nil, sink)
	e := newTestEngine(t, 1)
	e.Subscribe(s.Notify)

	require.True(t, e.SetSliceProgress(1, 0, 0, 4))
	require.True(t, e.RenameGroup(0, "Body"))
	require.NoError(t, s.Close(context.Background()))

	saved := sink.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, uint64(2), saved[0].Version)
	assert.Equal(t, 4, saved[0].Indicators[0].Groups[0].Slices[0].Progress)
	assert.Equal(t, "Body", saved[0].Template.Groups[0].Label)
}
