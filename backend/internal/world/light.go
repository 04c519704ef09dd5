package world

import "github.com/go-gl/mathgl/mgl32"

// SunLight - точечный источник света, привязанный к корневому телу
type SunLight struct {
	position       mgl32.Vec3
	intensity      float32
	modulationRate float32
}

// NewSunLight создает источник света по конфигурации
func NewSunLight(cfg LightConfig) *SunLight {
	return &SunLight{
		intensity:      cfg.Intensity,
		modulationRate: cfg.ModulationRate,
	}
}

// Modulate меняет интенсивность на rate*dt в направлении direction (+1/-1).
// Интенсивность не опускается ниже нуля.
func (l *SunLight) Modulate(dt float32, direction float32) {
	l.intensity += direction * l.modulationRate * dt
	if l.intensity < 0 {
		l.intensity = 0
	}
}

func (l *SunLight) SetPosition(p mgl32.Vec3) { l.position = p }
func (l *SunLight) Position() mgl32.Vec3     { return l.position }
func (l *SunLight) Intensity() float32       { return l.intensity }
func (l *SunLight) SetIntensity(v float32) {
	if v < 0 {
		v = 0
	}
	l.intensity = v
}
