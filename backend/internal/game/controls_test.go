package game

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orrery/backend/internal/catalog"
	"orrery/backend/internal/world"
)

var testConstants = catalog.Constants{MeanDistance: 10, RotationPeriod: 1, OrbitalPeriod: 1, Diameter: 1}

func testRecord(name, parent string, distance, orbital, diameter float32) catalog.Record {
	return catalog.Record{
		Name:          name,
		Texture:       name + ".png",
		MeanDistance:  distance,
		OrbitalPeriod: orbital,
		Diameter:      diameter,
		IsLit:         1,
		Parent:        parent,
	}
}

// Root, A, B в прямом порядке обхода
func newTestScene(t *testing.T) *world.Scene {
	t.Helper()
	cfg := world.DefaultSceneConfig()
	cfg.Light = world.LightConfig{Intensity: 100, ModulationRate: 10}
	scene, err := world.Build([]catalog.Record{
		testRecord("Root", "", 0, 0, 2),
		testRecord("A", "Root", 1, 4, 1),
		testRecord("B", "Root", 2, 8, 1),
	}, testConstants, cfg)
	require.NoError(t, err)
	return scene
}

func newTestControls(t *testing.T) (*Controls, *world.Scene) {
	scene := newTestScene(t)
	return NewControls(NewSceneHolder(scene)), scene
}

func TestControls_InitialState(t *testing.T) {
	c, _ := newTestControls(t)

	st := c.State()
	assert.False(t, st.Animation)
	assert.True(t, st.Orbits)
	assert.True(t, st.Info)
	assert.False(t, st.CameraLocked)
	assert.Equal(t, "Root", st.ActiveBody)
	assert.Equal(t, CameraStart, c.CameraPosition())
	assert.Equal(t, float32(100), st.LightIntensity)
}

func TestControls_BodyCyclingWraps(t *testing.T) {
	c, _ := newTestControls(t)

	var forward []string
	for i := 0; i < 4; i++ {
		require.NoError(t, c.Apply(CmdNextBody, 0))
		forward = append(forward, c.ActiveBody())
	}
	assert.Equal(t, []string{"A", "B", "Root", "A"}, forward)

	require.NoError(t, c.Apply(CmdPrevBody, 0))
	assert.Equal(t, "Root", c.ActiveBody())
	require.NoError(t, c.Apply(CmdPrevBody, 0))
	assert.Equal(t, "B", c.ActiveBody())
}

func TestControls_SwitchingBodyMovesCamera(t *testing.T) {
	c, scene := newTestControls(t)

	require.NoError(t, c.Apply(CmdNextBody, 0))
	want, err := scene.CameraTarget("A")
	require.NoError(t, err)
	assert.Equal(t, want, c.CameraPosition())
}

func TestControls_CameraLockFollowsBody(t *testing.T) {
	c, scene := newTestControls(t)
	require.NoError(t, c.Select("A"))
	require.NoError(t, c.Apply(CmdToggleCameraLock, 0))
	assert.True(t, c.CameraLocked())

	scene.SetAnimationEnabled(true)
	scene.Update(1)
	c.Sync()

	want, err := scene.CameraTarget("A")
	require.NoError(t, err)
	assert.Equal(t, want, c.CameraPosition())

	// Привязанная камера не двигается клавишами
	require.NoError(t, c.Apply(CmdMoveForward, time.Second))
	assert.Equal(t, want, c.CameraPosition())

	require.NoError(t, c.Apply(CmdToggleCameraLock, 0))
	assert.Equal(t, CameraStart, c.CameraPosition())
}

func TestControls_FreeCameraMovement(t *testing.T) {
	c, _ := newTestControls(t)

	require.NoError(t, c.Apply(CmdMoveForward, time.Second))
	assert.Equal(t, CameraStart.Add(mgl32.Vec3{0, 0, -100}), c.CameraPosition())

	require.NoError(t, c.Apply(CmdMoveRight, 500*time.Millisecond))
	require.NoError(t, c.Apply(CmdMoveUp, 500*time.Millisecond))
	assert.Equal(t, CameraStart.Add(mgl32.Vec3{50, 50, -100}), c.CameraPosition())
}

func TestControls_CameraSpeedIsClamped(t *testing.T) {
	c, _ := newTestControls(t)

	for i := 0; i < 200; i++ {
		require.NoError(t, c.Apply(CmdCameraFaster, 0))
	}
	assert.Equal(t, float32(MaxCameraMovementRate), c.State().CameraSpeed)

	for i := 0; i < 200; i++ {
		require.NoError(t, c.Apply(CmdCameraSlower, 0))
	}
	assert.Equal(t, float32(MinCameraMovementRate), c.State().CameraSpeed)
}

func TestControls_TogglesAndLight(t *testing.T) {
	c, scene := newTestControls(t)

	require.NoError(t, c.Apply(CmdToggleAnimation, 0))
	assert.True(t, scene.AnimationEnabled())
	require.NoError(t, c.Apply(CmdToggleOrbits, 0))
	assert.False(t, c.OrbitsVisible())
	require.NoError(t, c.Apply(CmdToggleInfo, 0))
	assert.False(t, c.InfoVisible())

	require.NoError(t, c.Apply(CmdLightUp, 2*time.Second))
	assert.Equal(t, float32(120), scene.LightIntensity())
	require.NoError(t, c.Apply(CmdLightDown, time.Minute))
	assert.Equal(t, float32(0), scene.LightIntensity())
}

func TestControls_Errors(t *testing.T) {
	c, _ := newTestControls(t)
	assert.ErrorIs(t, c.Apply(Command("warp"), 0), ErrUnknownCommand)
	assert.ErrorIs(t, c.Select("Pluto"), world.ErrUnknownBody)

	empty := NewControls(NewSceneHolder(nil))
	assert.ErrorIs(t, empty.Apply(CmdNextBody, 0), ErrNoScene)
	assert.Empty(t, empty.ActiveBody())
}

func TestControls_HelpLines(t *testing.T) {
	c, _ := newTestControls(t)
	lines := c.HelpLines()
	require.NotEmpty(t, lines)
	assert.Equal(t, "Active Body: Root", lines[0])
	assert.Contains(t, lines, "Toggle Animation (Space)")
	assert.Contains(t, lines, "Sun Light Intensity (+V/-B): 100")
}

func TestControls_ActiveIndexSurvivesSmallerScene(t *testing.T) {
	scene := newTestScene(t)
	holder := NewSceneHolder(scene)
	c := NewControls(holder)
	require.NoError(t, c.Select("B"))

	small, err := world.Build([]catalog.Record{testRecord("Solo", "", 0, 0, 1)}, testConstants, world.DefaultSceneConfig())
	require.NoError(t, err)
	holder.Replace(small)

	assert.Equal(t, "Solo", c.ActiveBody())
}

func TestSceneHolder_ReplaceCarriesDemoState(t *testing.T) {
	old := newTestScene(t)
	old.SetAnimationEnabled(true)
	old.ModulateLight(1, -1)

	holder := NewSceneHolder(old)
	fresh := newTestScene(t)
	assert.Same(t, old, holder.Replace(fresh))
	assert.Same(t, fresh, holder.Scene())
	assert.True(t, fresh.AnimationEnabled())
	assert.Equal(t, float32(90), fresh.LightIntensity())
}
