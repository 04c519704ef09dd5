package game

import (
	"log"
	"time"

	"orrery/backend/internal/telemetry"
	"orrery/backend/internal/world"
)

// SceneUpdateSystem продвигает сцену на каждом тике
type SceneUpdateSystem struct {
	name       string
	priority   int
	holder     *SceneHolder
	controls   *Controls
	gameTicker *GameTicker
	telemetry  *telemetry.TelemetryManager
	logger     *log.Logger

	// Телеметрия снимается раз в sampleEvery тиков
	sampleEvery   uint64
	sinceSample   time.Duration
	lastLogTick   uint64
	logEveryTicks uint64
}

// NewSceneUpdateSystem создает систему обновления сцены. controls и
// telemetry могут быть nil.
func NewSceneUpdateSystem(holder *SceneHolder, controls *Controls, gameTicker *GameTicker,
	tm *telemetry.TelemetryManager, logger *log.Logger) *SceneUpdateSystem {
	if logger == nil {
		logger = log.Default()
	}
	return &SceneUpdateSystem{
		name:          "SceneUpdateSystem",
		priority:      5, // Высокий приоритет - обновляем сцену первой
		holder:        holder,
		controls:      controls,
		gameTicker:    gameTicker,
		telemetry:     tm,
		logger:        logger,
		sampleEvery:   10,
		logEveryTicks: 1800,
	}
}

// SetSampleEvery задает частоту снятия телеметрии в тиках
func (sus *SceneUpdateSystem) SetSampleEvery(ticks uint64) {
	if ticks == 0 {
		ticks = 1
	}
	sus.sampleEvery = ticks
}

// Update обновляет сцену
func (sus *SceneUpdateSystem) Update(deltaTime time.Duration) error {
	scene := sus.holder.Scene()
	if scene == nil {
		return nil
	}

	scene.Update(float32(deltaTime.Seconds()))
	if sus.controls != nil {
		sus.controls.Sync()
	}

	tick := sus.gameTicker.GetTickCount()
	sus.sinceSample += deltaTime
	if sus.telemetry != nil && tick%sus.sampleEvery == 0 {
		sus.sample(scene, tick)
	}

	if tick-sus.lastLogTick >= sus.logEveryTicks {
		sus.lastLogTick = tick
		sus.logger.Printf("[SceneUpdateSystem] Тик %d: тел %d, анимация %v",
			tick, scene.Len(), scene.AnimationEnabled())
	}

	return nil
}

func (sus *SceneUpdateSystem) sample(scene *world.Scene, tick uint64) {
	dt := sus.sinceSample
	sus.sinceSample = 0

	for _, st := range scene.Snapshot() {
		sus.telemetry.LogBodyState(telemetry.TelemetryData{
			Tick:          tick,
			Body:          st.Name,
			Parent:        st.Parent,
			Position:      telemetry.Vector3{X: float64(st.Position.X), Y: float64(st.Position.Y), Z: float64(st.Position.Z)},
			RotationAngle: float64(st.Rotation),
			OrbitalAngle:  float64(st.Orbital),
			Diameter:      float64(st.Diameter),
		}, dt)
	}
}

// GetName возвращает имя системы
func (sus *SceneUpdateSystem) GetName() string {
	return sus.name
}

// GetPriority возвращает приоритет системы
func (sus *SceneUpdateSystem) GetPriority() int {
	return sus.priority
}

// Frame - состояние сцены, отправляемое клиентам за один раз
type Frame struct {
	Tick           uint64             `json:"tick"`
	Timestamp      int64              `json:"timestamp"`
	Animation      bool               `json:"animation"`
	LightIntensity float32            `json:"light_intensity"`
	Bodies         []world.BodyState  `json:"bodies"`
	Orbits         []world.OrbitState `json:"orbits,omitempty"`
	Controls       *ControlState      `json:"controls,omitempty"`
}

// FrameBroadcaster интерфейс для отправки кадров клиентам
type FrameBroadcaster interface {
	BroadcastFrame(frame Frame) error
}

// NetworkSyncSystem система синхронизации состояния с клиентами
type NetworkSyncSystem struct {
	name       string
	priority   int
	holder     *SceneHolder
	controls   *Controls
	gameTicker *GameTicker
	logger     *log.Logger

	lastBroadcast     time.Time
	broadcastInterval time.Duration

	broadcaster FrameBroadcaster
	now         func() time.Time
}

// NewNetworkSyncSystem создает новую систему сетевой синхронизации
func NewNetworkSyncSystem(holder *SceneHolder, controls *Controls, gameTicker *GameTicker,
	broadcastInterval time.Duration, logger *log.Logger) *NetworkSyncSystem {
	if logger == nil {
		logger = log.Default()
	}
	return &NetworkSyncSystem{
		name:              "NetworkSyncSystem",
		priority:          100, // Самый низкий приоритет - отправляем в конце тика
		holder:            holder,
		controls:          controls,
		gameTicker:        gameTicker,
		logger:            logger,
		broadcastInterval: broadcastInterval,
		now:               time.Now,
	}
}

// SetBroadcaster устанавливает получателя кадров
func (nss *NetworkSyncSystem) SetBroadcaster(broadcaster FrameBroadcaster) {
	nss.broadcaster = broadcaster
}

// Update отправляет кадр клиентам не чаще broadcastInterval
func (nss *NetworkSyncSystem) Update(deltaTime time.Duration) error {
	if nss.broadcaster == nil {
		return nil
	}

	now := nss.now()
	if now.Sub(nss.lastBroadcast) < nss.broadcastInterval {
		return nil
	}

	frame, ok := BuildFrame(nss.holder, nss.controls, nss.gameTicker.GetTickCount(), now)
	if !ok {
		return nil
	}
	nss.lastBroadcast = now

	if err := nss.broadcaster.BroadcastFrame(frame); err != nil {
		nss.logger.Printf("[NetworkSyncSystem] Ошибка отправки кадра: %v", err)
	}
	return nil
}

// BuildFrame собирает кадр текущей сцены. Точки орбит не включаются,
// они передаются один раз в описании сцены.
func BuildFrame(holder *SceneHolder, controls *Controls, tick uint64, now time.Time) (Frame, bool) {
	scene := holder.Scene()
	if scene == nil {
		return Frame{}, false
	}

	frame := Frame{
		Tick:           tick,
		Timestamp:      now.UnixMilli(),
		Animation:      scene.AnimationEnabled(),
		LightIntensity: scene.LightIntensity(),
		Bodies:         scene.Snapshot(),
	}
	if controls == nil || controls.OrbitsVisible() {
		frame.Orbits = scene.OrbitSnapshot(false)
	}
	if controls != nil {
		st := controls.State()
		frame.Controls = &st
	}
	return frame, true
}

// GetName возвращает имя системы
func (nss *NetworkSyncSystem) GetName() string {
	return nss.name
}

// GetPriority возвращает приоритет системы
func (nss *NetworkSyncSystem) GetPriority() int {
	return nss.priority
}

// GameMetricsSystem система сбора метрик цикла
type GameMetricsSystem struct {
	name       string
	priority   int
	gameTicker *GameTicker
	telemetry  *telemetry.TelemetryManager
	logger     *log.Logger

	lastMetricsLog  time.Time
	metricsInterval time.Duration
}

// NewGameMetricsSystem создает новую систему сбора метрик
func NewGameMetricsSystem(gameTicker *GameTicker, tm *telemetry.TelemetryManager,
	metricsInterval time.Duration, logger *log.Logger) *GameMetricsSystem {
	if logger == nil {
		logger = log.Default()
	}
	return &GameMetricsSystem{
		name:            "GameMetricsSystem",
		priority:        200, // Очень низкий приоритет - метрики в самом конце
		gameTicker:      gameTicker,
		telemetry:       tm,
		logger:          logger,
		lastMetricsLog:  time.Now(),
		metricsInterval: metricsInterval,
	}
}

// Update логирует метрики цикла и сводку телеметрии
func (gms *GameMetricsSystem) Update(deltaTime time.Duration) error {
	if gms.telemetry != nil {
		gms.telemetry.PrintSummary()
	}

	now := time.Now()
	if now.Sub(gms.lastMetricsLog) < gms.metricsInterval {
		return nil
	}
	gms.lastMetricsLog = now

	stats := gms.gameTicker.GetStats()
	gms.logger.Printf("[GameMetrics] TPS: %.1f/%d, Тиков: %d, Время тика: %v",
		stats["actual_tps"], stats["target_tps"], stats["tick_count"], stats["average_tick_time"])

	if actualTPS := stats["actual_tps"].(float64); actualTPS > 0 && actualTPS < float64(stats["target_tps"].(int))*0.9 {
		gms.logger.Printf("[GameMetrics] ПРЕДУПРЕЖДЕНИЕ: TPS снижен до %.1f", actualTPS)
	}

	return nil
}

// GetName возвращает имя системы
func (gms *GameMetricsSystem) GetName() string {
	return gms.name
}

// GetPriority возвращает приоритет системы
func (gms *GameMetricsSystem) GetPriority() int {
	return gms.priority
}
