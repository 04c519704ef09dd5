package game

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orrery/backend/internal/telemetry"
)

type mockBroadcaster struct {
	frames []Frame
	err    error
}

func (mb *mockBroadcaster) BroadcastFrame(frame Frame) error {
	mb.frames = append(mb.frames, frame)
	return mb.err
}

func TestSceneUpdateSystem_AdvancesSceneAndSamplesTelemetry(t *testing.T) {
	scene := newTestScene(t)
	holder := NewSceneHolder(scene)
	controls := NewControls(holder)
	gt := NewGameTicker(60, newTestLogger())
	tm := telemetry.NewTelemetryManager(newTestLogger(), 100, time.Hour)

	sys := NewSceneUpdateSystem(holder, controls, gt, tm, newTestLogger())
	sys.SetSampleEvery(1)
	gt.RegisterSystem(sys)

	a, err := scene.Body("A")
	require.NoError(t, err)

	// Пока анимация выключена, сцена стоит
	gt.Step(time.Second)
	assert.Zero(t, a.OrbitalAngle())

	scene.SetAnimationEnabled(true)
	gt.Step(time.Second)
	assert.NotZero(t, a.OrbitalAngle())

	entries := tm.Entries()
	assert.Len(t, entries, 2*scene.Len())
	assert.Equal(t, uint64(2), entries[len(entries)-1].Tick)
}

func TestSceneUpdateSystem_NoSceneIsNoop(t *testing.T) {
	gt := NewGameTicker(60, newTestLogger())
	sys := NewSceneUpdateSystem(NewSceneHolder(nil), nil, gt, nil, newTestLogger())
	assert.NoError(t, sys.Update(time.Second))
}

func TestNetworkSyncSystem_RespectsInterval(t *testing.T) {
	holder := NewSceneHolder(newTestScene(t))
	controls := NewControls(holder)
	gt := NewGameTicker(60, newTestLogger())

	nss := NewNetworkSyncSystem(holder, controls, gt, 100*time.Millisecond, newTestLogger())
	mb := &mockBroadcaster{}
	nss.SetBroadcaster(mb)

	now := time.Unix(1000, 0)
	nss.now = func() time.Time { return now }

	require.NoError(t, nss.Update(0))
	now = now.Add(50 * time.Millisecond)
	require.NoError(t, nss.Update(0))
	now = now.Add(60 * time.Millisecond)
	require.NoError(t, nss.Update(0))

	require.Len(t, mb.frames, 2)
	frame := mb.frames[0]
	assert.Len(t, frame.Bodies, 3)
	assert.Len(t, frame.Orbits, 2)
	require.NotNil(t, frame.Controls)
	assert.Equal(t, "Root", frame.Controls.ActiveBody)
	for _, o := range frame.Orbits {
		assert.Empty(t, o.Points)
	}
}

func TestNetworkSyncSystem_BroadcastErrorIsNotFatal(t *testing.T) {
	holder := NewSceneHolder(newTestScene(t))
	gt := NewGameTicker(60, newTestLogger())
	nss := NewNetworkSyncSystem(holder, nil, gt, 0, newTestLogger())
	nss.SetBroadcaster(&mockBroadcaster{err: errors.New("closed")})

	assert.NoError(t, nss.Update(0))
}

func TestBuildFrame_HidesOrbitsWhenToggledOff(t *testing.T) {
	holder := NewSceneHolder(newTestScene(t))
	controls := NewControls(holder)
	require.NoError(t, controls.Apply(CmdToggleOrbits, 0))

	frame, ok := BuildFrame(holder, controls, 7, time.Unix(1, 0))
	require.True(t, ok)
	assert.Empty(t, frame.Orbits)
	assert.Equal(t, uint64(7), frame.Tick)
	assert.Equal(t, int64(1000), frame.Timestamp)

	_, ok = BuildFrame(NewSceneHolder(nil), nil, 0, time.Now())
	assert.False(t, ok)
}

func TestGameMetricsSystem_PrintsTelemetrySummary(t *testing.T) {
	gt := NewGameTicker(60, newTestLogger())
	tm := telemetry.NewTelemetryManager(newTestLogger(), 10, 0)
	tm.LogEvent("cmd_next_body")

	gms := NewGameMetricsSystem(gt, tm, time.Hour, newTestLogger())
	require.NoError(t, gms.Update(0))
	assert.Zero(t, tm.Counter("cmd_next_body"))
}
