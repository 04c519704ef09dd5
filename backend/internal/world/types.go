package world

import "github.com/go-gl/mathgl/mgl32"

// Vector3 - позиция в мировых координатах в виде, удобном для JSON
type Vector3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// NewVector3 конвертирует вектор mathgl
func NewVector3(v mgl32.Vec3) Vector3 {
	return Vector3{X: v[0], Y: v[1], Z: v[2]}
}

// Vec3 возвращает вектор mathgl
func (v Vector3) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}

// BodyState - снимок тела для рендерера: все, что нужно на один вызов отрисовки
type BodyState struct {
	Name        string     `json:"name"`
	Parent      string     `json:"parent,omitempty"`
	Texture     string     `json:"texture"`
	Lit         bool       `json:"lit"`
	IsLit       float32    `json:"is_lit"`
	Reflectance float32    `json:"reflectance"`
	Diameter    float32    `json:"diameter"` // отрисовываемый диаметр
	Position    Vector3    `json:"position"`
	World       mgl32.Mat4 `json:"world"` // column-major
	Rotation    float32    `json:"rotation_angle"`
	Orbital     float32    `json:"orbital_angle"`
}

// OrbitState - снимок кольца орбиты
type OrbitState struct {
	Body   string     `json:"body"`
	Radius float32    `json:"radius"`
	Color  mgl32.Vec4 `json:"color"`
	Points []Vector3  `json:"points,omitempty"` // в локальных координатах кольца
	World  mgl32.Mat4 `json:"world"`
}
