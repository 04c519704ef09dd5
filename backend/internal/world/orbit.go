package world

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Orbit - кольцо точек вдоль орбиты тела. Геометрия пересчитывается только
// при смене параметров, каждый тик обновляется лишь привязка к родителю.
type Orbit struct {
	body    *Body
	radius  float32
	density float32
	color   mgl32.Vec4

	points []mgl32.Vec3
	world  mgl32.Mat4
}

// NewOrbit создает кольцо для тела с родителем
func NewOrbit(body *Body, density float32, color mgl32.Vec4) *Orbit {
	o := &Orbit{body: body, world: mgl32.Ident4()}
	o.SetParams(body.OrbitRadius(), density, color)
	o.Update()
	return o
}

// VertexCount возвращает число точек кольца заданного радиуса
func VertexCount(radius, density float32) int {
	if radius <= 0 || density <= 0 {
		return 0
	}
	return int(math32.Ceil(TwoPi * radius * density))
}

// SetParams задает параметры кольца. Точки пересчитываются, только если
// что-то действительно изменилось.
func (o *Orbit) SetParams(radius, density float32, color mgl32.Vec4) {
	if o.points != nil && radius == o.radius && density == o.density && color == o.color {
		return
	}
	o.radius = radius
	o.density = density
	o.color = color

	count := VertexCount(radius, density)
	o.points = make([]mgl32.Vec3, count)
	if count == 0 {
		return
	}

	step := TwoPi / float32(count)
	angle := float32(0)
	for i := range o.points {
		o.points[i] = mgl32.Vec3{radius * math32.Cos(angle), 0, radius * math32.Sin(angle)}
		angle += step
	}
}

// Update переносит кольцо в текущую позицию родителя
func (o *Orbit) Update() {
	parent := o.body.Parent()
	if parent == nil {
		o.world = mgl32.Ident4()
		return
	}
	origin := parent.Position()
	o.world = mgl32.Translate3D(origin[0], origin[1], origin[2])
}

func (o *Orbit) Body() *Body               { return o.body }
func (o *Orbit) Radius() float32           { return o.radius }
func (o *Orbit) Color() mgl32.Vec4         { return o.color }
func (o *Orbit) Points() []mgl32.Vec3      { return o.points }
func (o *Orbit) WorldTransform() mgl32.Mat4 { return o.world }

// State возвращает снимок кольца. Точки включаются по запросу, так как
// меняются редко.
func (o *Orbit) State(withPoints bool) OrbitState {
	s := OrbitState{
		Body:   o.body.Name(),
		Radius: o.radius,
		Color:  o.color,
		World:  o.world,
	}
	if withPoints {
		s.Points = make([]Vector3, len(o.points))
		for i, p := range o.points {
			s.Points[i] = NewVector3(p)
		}
	}
	return s
}
