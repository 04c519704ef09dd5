package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"orrery/backend/internal/world"
)

// Параметры свободной камеры
var CameraStart = mgl32.Vec3{0, 2.5, 1000}

const (
	MinCameraMovementRate = 10
	MaxCameraMovementRate = 1000
	MovementRateDelta     = 10
)

// Command - управляющее действие демо
type Command string

const (
	CmdToggleAnimation  Command = "toggle_animation"
	CmdToggleOrbits     Command = "toggle_orbits"
	CmdNextBody         Command = "next_body"
	CmdPrevBody         Command = "prev_body"
	CmdToggleCameraLock Command = "toggle_camera_lock"
	CmdToggleInfo       Command = "toggle_info"
	CmdLightUp          Command = "light_up"
	CmdLightDown        Command = "light_down"
	CmdCameraFaster     Command = "camera_faster"
	CmdCameraSlower     Command = "camera_slower"
	CmdMoveForward      Command = "move_forward"
	CmdMoveBackward     Command = "move_backward"
	CmdMoveLeft         Command = "move_left"
	CmdMoveRight        Command = "move_right"
	CmdMoveUp           Command = "move_up"
	CmdMoveDown         Command = "move_down"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrNoScene        = errors.New("scene is not loaded")
)

// ControlState - снимок состояния управления для HUD и подтверждений
type ControlState struct {
	Animation      bool          `json:"animation"`
	Orbits         bool          `json:"orbits"`
	Info           bool          `json:"info"`
	CameraLocked   bool          `json:"camera_locked"`
	ActiveBody     string        `json:"active_body"`
	Camera         world.Vector3 `json:"camera"`
	CameraSpeed    float32       `json:"camera_speed"`
	LightIntensity float32       `json:"light_intensity"`
}

// Controls - состояние демо поверх сцены: активное тело, камера,
// переключатели отображения. Общая часть для терминального,
// оконного просмотрщиков и websocket команд.
type Controls struct {
	holder *SceneHolder

	mu           sync.Mutex
	orbits       bool
	info         bool
	cameraLocked bool
	activeIndex  int
	camera       mgl32.Vec3
	cameraSpeed  float32
}

// NewControls создает управление с начальным состоянием демо:
// орбиты и подсказки показаны, камера свободна.
func NewControls(holder *SceneHolder) *Controls {
	return &Controls{
		holder:      holder,
		orbits:      true,
		info:        true,
		camera:      CameraStart,
		cameraSpeed: 100,
	}
}

// Apply выполняет команду. dt важен только для удерживаемых
// действий: яркости света и движения камеры.
func (c *Controls) Apply(cmd Command, dt time.Duration) error {
	scene := c.holder.Scene()
	if scene == nil {
		return ErrNoScene
	}
	seconds := float32(dt.Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	switch cmd {
	case CmdToggleAnimation:
		scene.ToggleAnimation()
	case CmdToggleOrbits:
		c.orbits = !c.orbits
	case CmdNextBody:
		c.activeIndex = (c.clampedIndex(scene) + 1) % scene.Len()
		c.focusActive(scene)
	case CmdPrevBody:
		idx := c.clampedIndex(scene)
		if idx == 0 {
			idx = scene.Len()
		}
		c.activeIndex = idx - 1
		c.focusActive(scene)
	case CmdToggleCameraLock:
		c.cameraLocked = !c.cameraLocked
		c.camera = CameraStart
		if c.cameraLocked {
			c.focusActive(scene)
		}
	case CmdToggleInfo:
		c.info = !c.info
	case CmdLightUp:
		scene.ModulateLight(seconds, +1)
	case CmdLightDown:
		scene.ModulateLight(seconds, -1)
	case CmdCameraFaster:
		if c.cameraSpeed < MaxCameraMovementRate {
			c.cameraSpeed += MovementRateDelta
		}
	case CmdCameraSlower:
		if c.cameraSpeed > MinCameraMovementRate {
			c.cameraSpeed -= MovementRateDelta
		}
	case CmdMoveForward:
		c.move(mgl32.Vec3{0, 0, -1}, seconds)
	case CmdMoveBackward:
		c.move(mgl32.Vec3{0, 0, 1}, seconds)
	case CmdMoveLeft:
		c.move(mgl32.Vec3{-1, 0, 0}, seconds)
	case CmdMoveRight:
		c.move(mgl32.Vec3{1, 0, 0}, seconds)
	case CmdMoveUp:
		c.move(mgl32.Vec3{0, 1, 0}, seconds)
	case CmdMoveDown:
		c.move(mgl32.Vec3{0, -1, 0}, seconds)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
	return nil
}

// Select делает активным тело с заданным именем
func (c *Controls) Select(name string) error {
	scene := c.holder.Scene()
	if scene == nil {
		return ErrNoScene
	}

	for i, b := range scene.Bodies() {
		if b.Name() == name {
			c.mu.Lock()
			c.activeIndex = i
			c.focusActive(scene)
			c.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: %q", world.ErrUnknownBody, name)
}

// Sync вызывается после обновления сцены: привязанная камера
// следует за активным телом.
func (c *Controls) Sync() {
	scene := c.holder.Scene()
	if scene == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cameraLocked {
		c.focusActive(scene)
	}
}

// move сдвигает свободную камеру. Привязанная камера не двигается.
func (c *Controls) move(dir mgl32.Vec3, seconds float32) {
	if c.cameraLocked {
		return
	}
	c.camera = c.camera.Add(dir.Mul(c.cameraSpeed * seconds))
}

func (c *Controls) clampedIndex(scene *world.Scene) int {
	if c.activeIndex >= scene.Len() || c.activeIndex < 0 {
		c.activeIndex = 0
	}
	return c.activeIndex
}

func (c *Controls) focusActive(scene *world.Scene) {
	body := scene.Bodies()[c.clampedIndex(scene)]
	if target, err := scene.CameraTarget(body.Name()); err == nil {
		c.camera = target
	}
}

// ActiveBody возвращает имя активного тела
func (c *Controls) ActiveBody() string {
	scene := c.holder.Scene()
	if scene == nil {
		return ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return scene.Bodies()[c.clampedIndex(scene)].Name()
}

// CameraPosition возвращает текущую позицию камеры
func (c *Controls) CameraPosition() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.camera
}

func (c *Controls) OrbitsVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orbits
}

func (c *Controls) InfoVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

func (c *Controls) CameraLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cameraLocked
}

// State возвращает снимок состояния управления
func (c *Controls) State() ControlState {
	st := ControlState{ActiveBody: c.ActiveBody()}
	if scene := c.holder.Scene(); scene != nil {
		st.Animation = scene.AnimationEnabled()
		st.LightIntensity = scene.LightIntensity()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	st.Orbits = c.orbits
	st.Info = c.info
	st.CameraLocked = c.cameraLocked
	st.Camera = world.NewVector3(c.camera)
	st.CameraSpeed = c.cameraSpeed
	return st
}

// HelpLines возвращает строки подсказки для HUD
func (c *Controls) HelpLines() []string {
	st := c.State()
	return []string{
		"Active Body: " + st.ActiveBody,
		"Camera Controls (WASD QE)",
		fmt.Sprintf("Sun Light Intensity (+V/-B): %g", st.LightIntensity),
		fmt.Sprintf("Camera Movement Speed (+/-): %g", st.CameraSpeed),
		"Toggle Animation (Space)",
		"Toggle Orbits (O)",
		"Next Body / Previous Body (Left / Right)",
		"Toggle Camera Locking (L)",
		"Toggle Info Display (I)",
		"Exit (Esc)",
	}
}
