// Package view проецирует сцену на плоскую сетку (вид сверху на плоскость
// XZ). Используется терминальным и SDL просмотрщиками.
package view

import (
	"unicode"
	"unicode/utf8"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"orrery/backend/internal/game"
	"orrery/backend/internal/world"
)

// Отношение высоты ячейки к ширине
const (
	TerminalAspect float32 = 2
	PixelAspect    float32 = 1
)

const fitMargin float32 = 0.95

// Viewport переводит координаты сцены в координаты экрана
type Viewport struct {
	Width, Height int
	Center        world.Vector3
	Scale         float32 // единиц экрана на единицу сцены по X
	Aspect        float32
}

// Fit подбирает масштаб так, чтобы все тела поместились на экране
func Fit(bodies []world.BodyState, center world.Vector3, width, height int, aspect float32) Viewport {
	if aspect <= 0 {
		aspect = PixelAspect
	}
	v := Viewport{Width: width, Height: height, Center: center, Scale: 1, Aspect: aspect}

	var extent float32
	for _, b := range bodies {
		dx := math32.Abs(b.Position.X - center.X)
		dz := math32.Abs(b.Position.Z - center.Z)
		extent = math32.Max(extent, math32.Max(dx, dz)+b.Diameter/2)
	}
	if extent <= 0 || width <= 0 || height <= 0 {
		return v
	}

	halfW := float32(width) / 2
	halfH := float32(height) / 2 * aspect
	v.Scale = math32.Min(halfW, halfH) / extent * fitMargin
	return v
}

// Zoom возвращает копию с масштабом, умноженным на factor
func (v Viewport) Zoom(factor float32) Viewport {
	if factor > 0 {
		v.Scale *= factor
	}
	return v
}

// Project возвращает ячейку экрана для точки сцены. ok = false, если точка
// вне экрана.
func (v Viewport) Project(p world.Vector3) (x, y int, ok bool) {
	fx := float32(v.Width)/2 + (p.X-v.Center.X)*v.Scale
	fy := float32(v.Height)/2 + (p.Z-v.Center.Z)*v.Scale/v.Aspect
	x, y = int(math32.Floor(fx)), int(math32.Floor(fy))
	return x, y, x >= 0 && y >= 0 && x < v.Width && y < v.Height
}

// Radius - радиус тела в ячейках по горизонтали
func (v Viewport) Radius(diameter float32) int {
	return int(math32.Round(diameter / 2 * v.Scale))
}

// OrbitPoints переводит точки кольца в координаты сцены
func OrbitPoints(o world.OrbitState) []world.Vector3 {
	out := make([]world.Vector3, len(o.Points))
	for i, p := range o.Points {
		out[i] = world.NewVector3(mgl32.TransformCoordinate(p.Vec3(), o.World))
	}
	return out
}

// Glyph - символ тела на карте: первая буква имени
func Glyph(name string) rune {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return '*'
	}
	return unicode.ToUpper(r)
}

// Center выбирает центр карты. Привязанная камера держит в центре
// активное тело, свободная смещает центр от корня на пройденный путь.
func Center(bodies []world.BodyState, st game.ControlState) world.Vector3 {
	if len(bodies) == 0 {
		return world.Vector3{}
	}
	if st.CameraLocked {
		for _, b := range bodies {
			if b.Name == st.ActiveBody {
				return b.Position
			}
		}
	}
	root := bodies[0].Position
	return world.Vector3{
		X: root.X + st.Camera.X - game.CameraStart.X(),
		Y: root.Y,
		Z: root.Z + st.Camera.Z - game.CameraStart.Z(),
	}
}
