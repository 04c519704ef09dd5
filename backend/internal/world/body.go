package world

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"orrery/backend/internal/catalog"
)

// TwoPi - полный оборот в радианах
const TwoPi = 2 * math32.Pi

// ErrAlreadyAdopted возвращается при попытке сменить родителя тела
var ErrAlreadyAdopted = errors.New("body already has a parent")

// Body - узел иерархии небесных тел. Родитель владеет потомками,
// потомок хранит на родителя только невладеющую ссылку.
type Body struct {
	record catalog.Record

	parent   *Body
	children []*Body

	rotationRate float32 // рад/с
	orbitalRate  float32 // рад/с
	axialTilt    float32 // рад
	scale        float32 // отрисовываемый диаметр
	clearance    float32

	rotationAngle float32
	orbitalAngle  float32

	distance       float32 // смещение вдоль оси X до поворота по орбите
	worldTransform mgl32.Mat4
}

// NewBody создает узел по записи каталога. Скорости вычисляются один раз.
func NewBody(rec catalog.Record, k catalog.Constants, cfg SceneConfig) *Body {
	return &Body{
		record:         rec,
		rotationRate:   angularRate(k.RotationPeriod * rec.RotationPeriod),
		orbitalRate:    angularRate(k.OrbitalPeriod * rec.OrbitalPeriod),
		axialTilt:      mgl32.DegToRad(rec.AxialTilt),
		scale:          k.Diameter * rec.Diameter,
		clearance:      cfg.ClearanceMultiplier,
		distance:       k.MeanDistance * rec.MeanDistance,
		worldTransform: mgl32.Ident4(),
	}
}

// angularRate переводит период в угловую скорость. Нулевой период
// означает отсутствие вращения.
func angularRate(period float32) float32 {
	if period == 0 {
		return 0
	}
	return TwoPi / period
}

// Adopt делает child спутником тела b. Орбита потомка отсчитывается
// от поверхности родителя, а не от его центра.
func (b *Body) Adopt(child *Body) error {
	if child == nil {
		return errors.New("nil child")
	}
	if child.parent != nil {
		return fmt.Errorf("%w: %s orbits %s", ErrAlreadyAdopted, child.Name(), child.parent.Name())
	}
	for p := b; p != nil; p = p.parent {
		if p == child {
			return fmt.Errorf("adopting %s by %s would create a cycle", child.Name(), b.Name())
		}
	}

	child.parent = b
	child.distance += b.scale / 2 * child.clearance
	b.children = append(b.children, child)
	return nil
}

// Update продвигает углы на dt секунд и пересчитывает мировую матрицу.
// Родитель должен быть уже обновлен на этом тике.
func (b *Body) Update(dt float32) {
	b.rotationAngle = advanceAngle(b.rotationAngle, dt*b.rotationRate)
	b.orbitalAngle = advanceAngle(b.orbitalAngle, dt*b.orbitalRate)
	b.refresh()
}

// advanceAngle накапливает угол и сбрасывает его в ноль при выходе за
// ±2π. Это не остаток от деления: часть оборота на границе теряется.
func advanceAngle(angle, delta float32) float32 {
	angle += delta
	if angle >= TwoPi || angle <= -TwoPi {
		return 0
	}
	return angle
}

// refresh пересчитывает мировую матрицу из текущих углов.
//
// В записи для вектор-строк порядок такой:
// Scale * RotY(rot) * RotZ(tilt) * Translate * RotY(orbit) [* Translate(parent)].
// mathgl работает с вектор-столбцами, поэтому произведение развернуто.
func (b *Body) refresh() {
	m := mgl32.HomogRotate3DY(b.orbitalAngle).
		Mul4(mgl32.Translate3D(b.distance, 0, 0)).
		Mul4(mgl32.HomogRotate3DZ(b.axialTilt)).
		Mul4(mgl32.HomogRotate3DY(b.rotationAngle)).
		Mul4(mgl32.Scale3D(b.scale, b.scale, b.scale))

	if b.parent != nil {
		origin := b.parent.Position()
		m = mgl32.Translate3D(origin[0], origin[1], origin[2]).Mul4(m)
	}
	b.worldTransform = m
}

// WalkPre обходит поддерево в прямом порядке: родитель раньше потомков.
// Если fn возвращает false, потомки узла пропускаются.
func (b *Body) WalkPre(fn func(*Body) bool) {
	if !fn(b) {
		return
	}
	for _, child := range b.children {
		child.WalkPre(fn)
	}
}

// Name возвращает имя тела
func (b *Body) Name() string { return b.record.Name }

// Record возвращает исходную запись каталога
func (b *Body) Record() catalog.Record { return b.record }

// Parent возвращает родителя или nil у корня
func (b *Body) Parent() *Body { return b.parent }

// Children возвращает спутников тела
func (b *Body) Children() []*Body { return b.children }

func (b *Body) RotationRate() float32  { return b.rotationRate }
func (b *Body) OrbitalRate() float32   { return b.orbitalRate }
func (b *Body) RotationAngle() float32 { return b.rotationAngle }
func (b *Body) OrbitalAngle() float32  { return b.orbitalAngle }

// Diameter возвращает отрисовываемый диаметр (с учетом глобального множителя)
func (b *Body) Diameter() float32 { return b.scale }

// OrbitRadius возвращает расстояние от центра родителя до орбиты
func (b *Body) OrbitRadius() float32 { return b.distance }

// WorldTransform возвращает мировую матрицу (column-major)
func (b *Body) WorldTransform() mgl32.Mat4 { return b.worldTransform }

// Position возвращает начало координат тела в мировом пространстве
func (b *Body) Position() mgl32.Vec3 {
	return b.worldTransform.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
}

// State возвращает снимок тела для рендерера
func (b *Body) State() BodyState {
	s := BodyState{
		Name:        b.record.Name,
		Texture:     b.record.Texture,
		Lit:         b.record.Lit(),
		IsLit:       b.record.IsLit,
		Reflectance: b.record.Reflectance,
		Diameter:    b.scale,
		Position:    NewVector3(b.Position()),
		World:       b.worldTransform,
		Rotation:    b.rotationAngle,
		Orbital:     b.orbitalAngle,
	}
	if b.parent != nil {
		s.Parent = b.parent.Name()
	}
	return s
}
