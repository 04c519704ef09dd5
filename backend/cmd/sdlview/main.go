// Оконный просмотрщик солнечной системы на SDL2: вид сверху, орбиты и
// управление с клавиатуры. Подсказки выводятся в заголовок окна.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"orrery/backend/internal/config"
	"orrery/backend/internal/game"
	"orrery/backend/internal/view"
	"orrery/backend/internal/world"
)

const (
	windowWidth   = 1024
	windowHeight  = 768
	frameMs       = 16
	minBodyRadius = 2
	zoomStep      = 1.25
)

// Клавиши, срабатывающие по нажатию
var pressCommands = map[sdl.Keycode]game.Command{
	sdl.K_SPACE:   game.CmdToggleAnimation,
	sdl.K_o:       game.CmdToggleOrbits,
	sdl.K_LEFT:    game.CmdPrevBody,
	sdl.K_RIGHT:   game.CmdNextBody,
	sdl.K_l:       game.CmdToggleCameraLock,
	sdl.K_i:       game.CmdToggleInfo,
	sdl.K_PLUS:    game.CmdCameraFaster,
	sdl.K_EQUALS:  game.CmdCameraFaster,
	sdl.K_KP_PLUS: game.CmdCameraFaster,
	sdl.K_MINUS:   game.CmdCameraSlower,
}

// Клавиши, действующие пока удерживаются
var holdCommands = []struct {
	scancode sdl.Scancode
	cmd      game.Command
}{
	{sdl.SCANCODE_W, game.CmdMoveForward},
	{sdl.SCANCODE_S, game.CmdMoveBackward},
	{sdl.SCANCODE_A, game.CmdMoveLeft},
	{sdl.SCANCODE_D, game.CmdMoveRight},
	{sdl.SCANCODE_E, game.CmdMoveUp},
	{sdl.SCANCODE_Q, game.CmdMoveDown},
	{sdl.SCANCODE_V, game.CmdLightUp},
	{sdl.SCANCODE_B, game.CmdLightDown},
}

func main() {
	var (
		configPath  = flag.String("config", "", "Файл конфигурации сервера, из него берутся настройки сцены")
		catalogPath = flag.String("catalog", "", "INI файл с телами, по умолчанию встроенная солнечная система")
		animate     = flag.Bool("animate", false, "Запустить анимацию сразу")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg := config.DefaultServerConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatalf("[SDL] Ошибка конфигурации: %v", err)
		}
		cfg = loaded
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}

	scene, err := world.LoadScene(cfg.CatalogPath, cfg.SceneConfig())
	if err != nil {
		logger.Fatalf("[SDL] Ошибка каталога: %v", err)
	}
	scene.SetAnimationEnabled(*animate || cfg.StartAnimated)

	holder := game.NewSceneHolder(scene)
	controls := game.NewControls(holder)
	ticker := game.NewGameTicker(1000/frameMs, logger)
	ticker.RegisterSystem(game.NewSceneUpdateSystem(holder, controls, ticker, nil, logger))

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		logger.Fatalf("[SDL] Init: %v", err)
	}
	defer sdl.Quit()

	sdl.SetHint(sdl.HINT_RENDER_SCALE_QUALITY, "1")
	window, err := sdl.CreateWindow("orrery", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		windowWidth, windowHeight, sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		logger.Fatalf("[SDL] CreateWindow: %v", err)
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		logger.Fatalf("[SDL] CreateRenderer: %v", err)
	}
	defer renderer.Destroy()

	zoom := float32(1)
	last := time.Now()
	for {
		frameStart := time.Now()
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				return
			case *sdl.KeyboardEvent:
				if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
					continue
				}
				switch e.Keysym.Sym {
				case sdl.K_ESCAPE:
					return
				case sdl.K_RIGHTBRACKET:
					zoom *= zoomStep
				case sdl.K_LEFTBRACKET:
					zoom /= zoomStep
				}
				if cmd, ok := pressCommands[e.Keysym.Sym]; ok {
					if err := controls.Apply(cmd, 0); err != nil {
						logger.Printf("[SDL] Команда %s: %v", cmd, err)
					}
				}
			}
		}

		dt := frameStart.Sub(last)
		last = frameStart

		applyHeldKeys(controls, sdl.GetKeyboardState(), dt, logger)

		ticker.Step(dt)
		draw(renderer, window, scene, controls, zoom)

		if elapsed := time.Since(frameStart); elapsed < frameMs*time.Millisecond {
			sdl.Delay(uint32((frameMs*time.Millisecond - elapsed) / time.Millisecond))
		}
	}
}

// applyHeldKeys применяет команды зажатых клавиш за прошедший кадр
func applyHeldKeys(controls *game.Controls, keys []uint8, dt time.Duration, logger *log.Logger) {
	for _, h := range holdCommands {
		if int(h.scancode) < len(keys) && keys[h.scancode] != 0 {
			if err := controls.Apply(h.cmd, dt); err != nil {
				logger.Printf("[SDL] Команда %s: %v", h.cmd, err)
			}
		}
	}
}

func draw(renderer *sdl.Renderer, window *sdl.Window, scene *world.Scene, controls *game.Controls, zoom float32) {
	width, height := window.GetSize()
	st := controls.State()
	bodies := scene.Snapshot()
	vp := view.Fit(bodies, view.Center(bodies, st), int(width), int(height), view.PixelAspect).Zoom(zoom)

	renderer.SetDrawColor(0, 0, 0, 255)
	renderer.Clear()

	if st.Orbits {
		for _, o := range scene.OrbitSnapshot(true) {
			renderer.SetDrawColor(colorByte(o.Color[0]*0.5), colorByte(o.Color[1]*0.5), colorByte(o.Color[2]*0.5), 255)
			for _, p := range view.OrbitPoints(o) {
				if x, y, ok := vp.Project(p); ok {
					renderer.DrawPoint(int32(x), int32(y))
				}
			}
		}
	}

	for i, b := range bodies {
		x, y, ok := vp.Project(b.Position)
		if !ok {
			continue
		}
		r := max(vp.Radius(b.Diameter), minBodyRadius)

		switch {
		case i == 0:
			renderer.SetDrawColor(255, 210, 64, 255)
		case b.Lit:
			shade := colorByte(0.4 + b.Reflectance*0.6)
			renderer.SetDrawColor(shade, shade, 255, 255)
		default:
			renderer.SetDrawColor(200, 200, 200, 255)
		}
		rect := sdl.Rect{X: int32(x - r), Y: int32(y - r), W: int32(2 * r), H: int32(2 * r)}
		renderer.FillRect(&rect)

		if b.Name == st.ActiveBody {
			renderer.SetDrawColor(0, 255, 0, 255)
			outline := sdl.Rect{X: rect.X - 3, Y: rect.Y - 3, W: rect.W + 6, H: rect.H + 6}
			renderer.DrawRect(&outline)
		}
	}

	renderer.Present()

	title := "orrery"
	if st.Info {
		title = fmt.Sprintf("orrery | %s | light %g | camera speed %g | Space anim, O orbits, ←/→ body, L lock, I info, V/B light, +/- speed, Esc",
			st.ActiveBody, st.LightIntensity, st.CameraSpeed)
	}
	window.SetTitle(title)
}

func colorByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v * 255)
}
