// Терминальный просмотрщик солнечной системы: вид сверху, HUD с
// подсказками и управление с клавиатуры.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"orrery/backend/internal/config"
	"orrery/backend/internal/game"
	"orrery/backend/internal/view"
	"orrery/backend/internal/world"
)

const (
	frameInterval = 16 * time.Millisecond // ~60 FPS
	zoomStep      = 1.25
)

var (
	styleOrbit  = tcell.StyleDefault.Foreground(tcell.ColorDimGray)
	styleRoot   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleLit    = tcell.StyleDefault.Foreground(tcell.ColorLightSkyBlue)
	styleUnlit  = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleHUD    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
)

type viewer struct {
	screen   tcell.Screen
	holder   *game.SceneHolder
	controls *game.Controls
	ticker   *game.GameTicker
	cue      *Cue
	zoom     float32
	logger   *log.Logger
}

func newViewer(scene *world.Scene, logger *log.Logger) (*viewer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	holder := game.NewSceneHolder(scene)
	controls := game.NewControls(holder)

	// Тикер используется синхронно через Step, поэтому без своей горутины
	ticker := game.NewGameTicker(int(time.Second/frameInterval), logger)
	ticker.RegisterSystem(game.NewSceneUpdateSystem(holder, controls, ticker, nil, logger))

	v := &viewer{
		screen:   screen,
		holder:   holder,
		controls: controls,
		ticker:   ticker,
		cue:      &Cue{},
		zoom:     1,
		logger:   logger,
	}
	if err := v.cue.Init(); err != nil {
		logger.Printf("[TUI] Звук недоступен: %v", err)
	}
	return v, nil
}

func (v *viewer) run() {
	frames := time.NewTicker(frameInterval)
	defer frames.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	last := time.Now()
	for {
		select {
		case ev := <-events:
			if !v.handleEvent(ev) {
				return
			}

		case now := <-frames.C:
			v.ticker.Step(now.Sub(last))
			last = now
			v.draw()
		}
	}
}

func (v *viewer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		cmd, action := keyCommand(ev)
		switch action {
		case actionQuit:
			return false
		case actionZoomIn:
			v.zoom *= zoomStep
		case actionZoomOut:
			v.zoom /= zoomStep
		case actionMute:
			v.cue.ToggleMute()
		}
		if cmd == "" {
			return true
		}

		before := v.controls.ActiveBody()
		// Одно нажатие двигает камеру как удержание клавиши на время кадра
		if err := v.controls.Apply(cmd, 6*frameInterval); err != nil {
			v.logger.Printf("[TUI] Команда %s: %v", cmd, err)
		}
		if after := v.controls.ActiveBody(); after != before {
			v.cue.Play(v.activeIndex(after))
		}

	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *viewer) activeIndex(name string) int {
	for i, b := range v.holder.Scene().Bodies() {
		if b.Name() == name {
			return i
		}
	}
	return 0
}

func (v *viewer) draw() {
	v.screen.Clear()
	width, height := v.screen.Size()

	scene := v.holder.Scene()
	if scene == nil {
		v.drawText(0, 0, "Scene is not loaded", styleHUD)
		v.screen.Show()
		return
	}

	st := v.controls.State()
	bodies := scene.Snapshot()
	vp := view.Fit(bodies, view.Center(bodies, st), width, height-1, view.TerminalAspect).Zoom(v.zoom)

	if st.Orbits {
		for _, o := range scene.OrbitSnapshot(true) {
			for _, p := range view.OrbitPoints(o) {
				if x, y, ok := vp.Project(p); ok {
					v.screen.SetContent(x, y, '·', nil, styleOrbit)
				}
			}
		}
	}

	for i, b := range bodies {
		x, y, ok := vp.Project(b.Position)
		if !ok {
			continue
		}
		style := styleUnlit
		switch {
		case i == 0:
			style = styleRoot
		case b.Lit:
			style = styleLit
		}
		if b.Name == st.ActiveBody {
			style = style.Reverse(true)
		}
		v.screen.SetContent(x, y, view.Glyph(b.Name), nil, style)
	}

	if st.Info {
		for i, line := range v.controls.HelpLines() {
			v.drawText(0, i, line, styleHUD)
		}
	}

	anim := "paused"
	if st.Animation {
		anim = "running"
	}
	status := fmt.Sprintf(" %s | tick %d | zoom x%.2f | [ ] zoom, m mute ", anim, v.ticker.GetTickCount(), v.zoom)
	for x := 0; x < width; x++ {
		v.screen.SetContent(x, height-1, ' ', nil, styleStatus)
	}
	v.drawText(0, height-1, status, styleStatus)

	v.screen.Show()
}

func (v *viewer) drawText(x, y int, text string, style tcell.Style) {
	for _, r := range text {
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (v *viewer) cleanup() {
	v.cue.Close()
	v.screen.Fini()
}

func main() {
	var (
		configPath  = flag.String("config", "", "Файл конфигурации сервера, из него берутся настройки сцены")
		catalogPath = flag.String("catalog", "", "INI файл с телами, по умолчанию встроенная солнечная система")
		animate     = flag.Bool("animate", false, "Запустить анимацию сразу")
		logPath     = flag.String("log", "", "Файл журнала, терминал занят под изображение")
	)
	flag.Parse()

	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Не удалось открыть журнал: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	logger := log.New(out, "", log.LstdFlags)

	cfg := config.DefaultServerConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}

	scene, err := world.LoadScene(cfg.CatalogPath, cfg.SceneConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка каталога: %v\n", err)
		os.Exit(1)
	}
	scene.SetAnimationEnabled(*animate || cfg.StartAnimated)

	v, err := newViewer(scene, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer v.cleanup()

	v.run()
}
