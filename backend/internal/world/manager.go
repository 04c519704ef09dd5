package world

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnknownBody возвращается при обращении к телу, которого нет в сцене
var ErrUnknownBody = errors.New("unknown body")

// Scene владеет деревом тел и обновляет его по тикам. Все изменения
// выполняются одним потоком; мьютекс нужен только читателям снимков.
type Scene struct {
	root   *Body
	bodies []*Body // прямой порядок обхода
	byName map[string]*Body
	orbits []*Orbit
	light  *SunLight
	cfg    SceneConfig

	animationEnabled bool
	mu               sync.RWMutex
}

func newScene(root *Body, cfg SceneConfig) *Scene {
	s := &Scene{
		root:   root,
		byName: make(map[string]*Body),
		light:  NewSunLight(cfg.Light),
		cfg:    cfg,
	}

	root.WalkPre(func(b *Body) bool {
		s.bodies = append(s.bodies, b)
		s.byName[b.Name()] = b
		return true
	})

	// Начальные матрицы до первого тика, родитель раньше потомка
	for _, b := range s.bodies {
		b.refresh()
		if cfg.Orbit.Enabled && b.Parent() != nil && VertexCount(b.OrbitRadius(), cfg.Orbit.Density) > 0 {
			s.orbits = append(s.orbits, NewOrbit(b, cfg.Orbit.Density, cfg.Orbit.Color))
		}
	}
	s.light.SetPosition(root.Position())

	return s
}

// Update продвигает симуляцию на dt секунд. При выключенной анимации
// углы и матрицы не меняются.
func (s *Scene) Update(dt float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.animationEnabled {
		return
	}

	for _, b := range s.bodies {
		b.Update(dt)
	}
	for _, o := range s.orbits {
		o.Update()
	}
	s.light.SetPosition(s.root.Position())
}

// AnimationEnabled сообщает, идет ли анимация
func (s *Scene) AnimationEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.animationEnabled
}

// SetAnimationEnabled включает или выключает анимацию
func (s *Scene) SetAnimationEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animationEnabled = enabled
}

// ToggleAnimation переключает анимацию и возвращает новое состояние
func (s *Scene) ToggleAnimation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animationEnabled = !s.animationEnabled
	return s.animationEnabled
}

// Root возвращает корневое тело
func (s *Scene) Root() *Body {
	return s.root
}

// Body возвращает тело по имени
func (s *Scene) Body(name string) (*Body, error) {
	b, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBody, name)
	}
	return b, nil
}

// Bodies возвращает тела в прямом порядке обхода
func (s *Scene) Bodies() []*Body {
	return s.bodies
}

// Orbits возвращает кольца орбит
func (s *Scene) Orbits() []*Orbit {
	return s.orbits
}

// Light возвращает солнечный свет сцены
func (s *Scene) Light() *SunLight {
	return s.light
}

// Config возвращает конфигурацию, с которой построена сцена
func (s *Scene) Config() SceneConfig {
	return s.cfg
}

// Len возвращает количество тел
func (s *Scene) Len() int {
	return len(s.bodies)
}

// Snapshot возвращает состояние всех тел для отрисовки
func (s *Scene) Snapshot() []BodyState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]BodyState, len(s.bodies))
	for i, b := range s.bodies {
		states[i] = b.State()
	}
	return states
}

// OrbitSnapshot возвращает состояние колец орбит
func (s *Scene) OrbitSnapshot(withPoints bool) []OrbitState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]OrbitState, len(s.orbits))
	for i, o := range s.orbits {
		states[i] = o.State(withPoints)
	}
	return states
}

// BodyPosition возвращает мировую позицию и отрисовываемый диаметр тела
func (s *Scene) BodyPosition(name string) (mgl32.Vec3, float32, error) {
	b, err := s.Body(name)
	if err != nil {
		return mgl32.Vec3{}, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return b.Position(), b.Diameter(), nil
}

// CameraTarget возвращает точку, из которой камера следит за телом:
// позиция тела, отодвинутая по Z на диаметр из каталога * множитель.
func (s *Scene) CameraTarget(name string) (mgl32.Vec3, error) {
	b, err := s.Body(name)
	if err != nil {
		return mgl32.Vec3{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	offset := mgl32.Vec3{0, 0, b.Record().Diameter * s.cfg.CameraOffsetMultiplier}
	return b.Position().Add(offset), nil
}

// ModulateLight меняет интенсивность солнечного света
func (s *Scene) ModulateLight(dt, direction float32) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.light.Modulate(dt, direction)
	return s.light.Intensity()
}

// LightIntensity возвращает текущую интенсивность света
func (s *Scene) LightIntensity() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.light.Intensity()
}
