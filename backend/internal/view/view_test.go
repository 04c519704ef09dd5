package view

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"orrery/backend/internal/game"
	"orrery/backend/internal/world"
)

func bodies() []world.BodyState {
	return []world.BodyState{
		{Name: "Sun", Diameter: 20},
		{Name: "Earth", Parent: "Sun", Diameter: 2, Position: world.Vector3{X: 100}},
		{Name: "Moon", Parent: "Earth", Diameter: 1, Position: world.Vector3{X: 100, Z: -30}},
	}
}

func TestFit_EverythingOnScreen(t *testing.T) {
	v := Fit(bodies(), world.Vector3{}, 80, 24, TerminalAspect)

	// половина высоты 12 строк * 2 = 24 меньше половины ширины 40
	assert.InDelta(t, 24.0/101*0.95, v.Scale, 1e-5)
	for _, b := range bodies() {
		_, _, ok := v.Project(b.Position)
		assert.True(t, ok, b.Name)
	}
}

func TestFit_Degenerate(t *testing.T) {
	v := Fit(nil, world.Vector3{}, 80, 24, 0)
	assert.Equal(t, float32(1), v.Scale)
	assert.Equal(t, PixelAspect, v.Aspect)
}

func TestProject(t *testing.T) {
	v := Viewport{Width: 10, Height: 10, Scale: 1, Aspect: 2}

	tests := []struct {
		name   string
		p      world.Vector3
		x, y   int
		inside bool
	}{
		{name: "center", p: world.Vector3{}, x: 5, y: 5, inside: true},
		{name: "x right", p: world.Vector3{X: 3}, x: 8, y: 5, inside: true},
		{name: "z squashed", p: world.Vector3{Z: 4}, x: 5, y: 7, inside: true},
		{name: "y ignored", p: world.Vector3{Y: 100}, x: 5, y: 5, inside: true},
		{name: "left edge", p: world.Vector3{X: -6}, x: -1, y: 5, inside: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := v.Project(tt.p)
			assert.Equal(t, tt.x, x)
			assert.Equal(t, tt.y, y)
			assert.Equal(t, tt.inside, ok)
		})
	}
}

func TestZoomAndRadius(t *testing.T) {
	v := Viewport{Scale: 2}
	assert.Equal(t, float32(4), v.Zoom(2).Scale)
	assert.Equal(t, float32(2), v.Zoom(0).Scale)
	assert.Equal(t, 10, v.Radius(10))
}

func TestOrbitPoints_AppliesWorld(t *testing.T) {
	o := world.OrbitState{
		Points: []world.Vector3{{X: 5}, {Z: 5}},
		World:  mgl32.Translate3D(10, 0, 20),
	}
	pts := OrbitPoints(o)
	assert.Equal(t, world.Vector3{X: 15, Z: 20}, pts[0])
	assert.Equal(t, world.Vector3{X: 10, Z: 25}, pts[1])
}

func TestGlyph(t *testing.T) {
	assert.Equal(t, 'E', Glyph("earth"))
	assert.Equal(t, 'Ю', Glyph("юпитер"))
	assert.Equal(t, '*', Glyph(""))
}

func TestCenter(t *testing.T) {
	st := game.ControlState{ActiveBody: "Earth", Camera: world.NewVector3(game.CameraStart)}
	assert.Equal(t, world.Vector3{}, Center(bodies(), st))

	st.Camera.X += 7
	st.Camera.Z -= 3
	assert.Equal(t, world.Vector3{X: 7, Z: -3}, Center(bodies(), st))

	st.CameraLocked = true
	assert.Equal(t, world.Vector3{X: 100}, Center(bodies(), st))
	assert.Equal(t, world.Vector3{}, Center(nil, st))
}
