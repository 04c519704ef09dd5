package game

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// TickSystem интерфейс для всех систем цикла
type TickSystem interface {
	Update(deltaTime time.Duration) error
	GetName() string
	GetPriority() int // Приоритет выполнения (меньше = раньше)
}

// GameTicker основной менеджер цикла симуляции. Все системы выполняются
// в одной горутине, поэтому сцена обновляется строго последовательно.
type GameTicker struct {
	// Конфигурация
	targetTPS    int           // Целевая частота тиков в секунду
	tickDuration time.Duration // Длительность одного тика
	maxTickTime  time.Duration // Максимальное время на один тик

	// Состояние
	isRunning    atomic.Bool
	isPaused     atomic.Bool
	tickCount    atomic.Uint64
	startTime    time.Time
	lastTickTime time.Time

	// Системы
	systems      []TickSystem
	systemsMutex sync.RWMutex

	// Мониторинг производительности
	perfMonitor *PerformanceMonitor

	// Управление
	ctx       context.Context
	cancel    context.CancelFunc
	pauseChan chan bool
	done      chan struct{}

	// Метрики
	metricsMutex    sync.Mutex
	averageTickTime time.Duration
	maxObservedTick time.Duration
	skippedTicks    uint64

	// Логирование
	logger           *log.Logger
	warningThreshold time.Duration
}

// PerformanceMonitor отслеживает производительность каждой системы
type PerformanceMonitor struct {
	systemMetrics map[string]*SystemMetrics
	mutex         sync.RWMutex

	// Настройки мониторинга
	metricsWindow     int           // Количество последних тиков для усреднения
	warningThreshold  time.Duration // Порог предупреждения для системы
	criticalThreshold time.Duration // Критический порог
}

// SystemMetrics метрики производительности системы
type SystemMetrics struct {
	Name              string
	LastExecutionTime time.Duration
	AverageTime       time.Duration
	MaxTime           time.Duration
	TotalExecutions   uint64
	Errors            uint64

	// Скользящее окно для вычисления среднего
	recentTimes  []time.Duration
	recentIndex  int
	windowFilled bool
}

// NewGameTicker создает новый тикер
func NewGameTicker(targetTPS int, logger *log.Logger) *GameTicker {
	if targetTPS <= 0 {
		targetTPS = 60
	}

	if logger == nil {
		logger = log.Default()
	}

	tickDuration := time.Second / time.Duration(targetTPS)
	maxTickTime := tickDuration * 2 // Максимум в 2 раза больше целевого времени

	ctx, cancel := context.WithCancel(context.Background())

	return &GameTicker{
		targetTPS:        targetTPS,
		tickDuration:     tickDuration,
		maxTickTime:      maxTickTime,
		systems:          make([]TickSystem, 0),
		perfMonitor:      NewPerformanceMonitor(50, tickDuration/4), // Предупреждение при 25% от тика
		ctx:              ctx,
		cancel:           cancel,
		pauseChan:        make(chan bool, 1),
		done:             make(chan struct{}),
		logger:           logger,
		warningThreshold: tickDuration / 2, // Предупреждение при 50% от времени тика
	}
}

// NewPerformanceMonitor создает новый монитор производительности
func NewPerformanceMonitor(windowSize int, warningThreshold time.Duration) *PerformanceMonitor {
	if windowSize <= 0 {
		windowSize = 1
	}
	return &PerformanceMonitor{
		systemMetrics:     make(map[string]*SystemMetrics),
		metricsWindow:     windowSize,
		warningThreshold:  warningThreshold,
		criticalThreshold: warningThreshold * 2,
	}
}

// Start запускает цикл в отдельной горутине
func (gt *GameTicker) Start() error {
	if !gt.isRunning.CompareAndSwap(false, true) {
		return nil // Уже запущен
	}

	gt.startTime = time.Now()
	gt.lastTickTime = gt.startTime

	gt.logger.Printf("[GameTicker] Запуск цикла: %d TPS (тик каждые %v)", gt.targetTPS, gt.tickDuration)

	go gt.gameLoop()

	return nil
}

// Stop останавливает цикл и дожидается выхода из него
func (gt *GameTicker) Stop() {
	if !gt.isRunning.CompareAndSwap(true, false) {
		return
	}

	gt.logger.Printf("[GameTicker] Остановка цикла (выполнено тиков: %d)", gt.tickCount.Load())

	gt.cancel()
	<-gt.done
}

// Pause приостанавливает выполнение тиков
func (gt *GameTicker) Pause() {
	gt.setPaused(true)
}

// Resume возобновляет выполнение тиков
func (gt *GameTicker) Resume() {
	gt.setPaused(false)
}

func (gt *GameTicker) setPaused(pause bool) {
	if gt.isPaused.Swap(pause) == pause {
		return
	}
	// Держим в канале только последнюю команду
	select {
	case <-gt.pauseChan:
	default:
	}
	gt.pauseChan <- pause
}

// IsPaused сообщает, приостановлен ли цикл
func (gt *GameTicker) IsPaused() bool {
	return gt.isPaused.Load()
}

// RegisterSystem добавляет систему в цикл
func (gt *GameTicker) RegisterSystem(system TickSystem) {
	gt.systemsMutex.Lock()
	defer gt.systemsMutex.Unlock()

	gt.systems = append(gt.systems, system)

	// Сортируем по приоритету (меньше = выше приоритет)
	for i := len(gt.systems) - 1; i > 0; i-- {
		if gt.systems[i].GetPriority() < gt.systems[i-1].GetPriority() {
			gt.systems[i], gt.systems[i-1] = gt.systems[i-1], gt.systems[i]
		} else {
			break
		}
	}

	gt.perfMonitor.initSystemMetrics(system.GetName())

	gt.logger.Printf("[GameTicker] Зарегистрирована система: %s (приоритет: %d)",
		system.GetName(), system.GetPriority())
}

// Systems возвращает системы в порядке выполнения
func (gt *GameTicker) Systems() []TickSystem {
	gt.systemsMutex.RLock()
	defer gt.systemsMutex.RUnlock()

	systems := make([]TickSystem, len(gt.systems))
	copy(systems, gt.systems)
	return systems
}

// gameLoop основной цикл
func (gt *GameTicker) gameLoop() {
	defer close(gt.done)

	ticker := time.NewTicker(gt.tickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-gt.ctx.Done():
			return

		case pause := <-gt.pauseChan:
			// Ждем команды возобновления
			for pause {
				select {
				case <-gt.ctx.Done():
					return
				case pause = <-gt.pauseChan:
				}
			}
			// Время паузы не должно попасть в dt первого тика
			gt.lastTickTime = time.Now()

		case tickTime := <-ticker.C:
			gt.executeTick(tickTime)
		}
	}
}

// executeTick выполняет один тик по сигналу таймера
func (gt *GameTicker) executeTick(tickTime time.Time) {
	deltaTime := tickTime.Sub(gt.lastTickTime)
	if deltaTime < 0 {
		deltaTime = 0
	}

	// Проверяем, не слишком ли большая задержка между тиками
	if deltaTime > gt.tickDuration*2 {
		gt.logger.Printf("[GameTicker] ПРЕДУПРЕЖДЕНИЕ: Большая задержка между тиками: %v (ожидалось: %v)",
			deltaTime, gt.tickDuration)
		gt.metricsMutex.Lock()
		gt.skippedTicks++
		gt.metricsMutex.Unlock()
	}

	gt.lastTickTime = tickTime
	gt.Step(deltaTime)
}

// Step синхронно выполняет один тик с заданным dt. Используется
// просмотрщиками с собственным циклом и тестами. Нельзя вызывать
// одновременно с запущенным Start.
func (gt *GameTicker) Step(deltaTime time.Duration) {
	tickStart := time.Now()
	gt.tickCount.Add(1)

	gt.executeAllSystems(deltaTime)

	totalTickTime := time.Since(tickStart)
	gt.updateTickMetrics(totalTickTime)
	gt.checkPerformance(totalTickTime)
}

// executeAllSystems выполняет все зарегистрированные системы
func (gt *GameTicker) executeAllSystems(deltaTime time.Duration) {
	for _, system := range gt.Systems() {
		gt.executeSystem(system, deltaTime)
	}
}

// executeSystem выполняет одну систему с замером времени
func (gt *GameTicker) executeSystem(system TickSystem, deltaTime time.Duration) {
	systemStart := time.Now()
	systemName := system.GetName()

	defer func() {
		if r := recover(); r != nil {
			gt.logger.Printf("[GameTicker] КРИТИЧЕСКАЯ ОШИБКА в системе %s: %v", systemName, r)
			gt.perfMonitor.recordError(systemName)
		}
	}()

	err := system.Update(deltaTime)

	gt.perfMonitor.recordExecution(systemName, time.Since(systemStart))

	if err != nil {
		gt.logger.Printf("[GameTicker] Ошибка в системе %s: %v", systemName, err)
		gt.perfMonitor.recordError(systemName)
	}
}

// GetStats возвращает статистику цикла
func (gt *GameTicker) GetStats() map[string]interface{} {
	gt.metricsMutex.Lock()
	averageTickTime, maxObservedTick, skippedTicks := gt.averageTickTime, gt.maxObservedTick, gt.skippedTicks
	gt.metricsMutex.Unlock()

	tickCount := gt.tickCount.Load()
	var uptime time.Duration
	var actualTPS float64
	if !gt.startTime.IsZero() {
		uptime = time.Since(gt.startTime)
		actualTPS = float64(tickCount) / uptime.Seconds()
	}

	return map[string]interface{}{
		"target_tps":        gt.targetTPS,
		"actual_tps":        actualTPS,
		"tick_count":        tickCount,
		"uptime_seconds":    uptime.Seconds(),
		"average_tick_time": averageTickTime,
		"max_observed_tick": maxObservedTick,
		"skipped_ticks":     skippedTicks,
		"is_running":        gt.isRunning.Load(),
		"is_paused":         gt.isPaused.Load(),
		"systems_count":     len(gt.Systems()),
		"systems":           gt.perfMonitor.GetSystemsStats(),
	}
}

// GetTickCount возвращает текущее количество тиков
func (gt *GameTicker) GetTickCount() uint64 {
	return gt.tickCount.Load()
}

// TickDuration возвращает целевую длительность тика
func (gt *GameTicker) TickDuration() time.Duration {
	return gt.tickDuration
}

// PerformanceMonitor возвращает монитор производительности систем
func (gt *GameTicker) PerformanceMonitor() *PerformanceMonitor {
	return gt.perfMonitor
}

// Вспомогательные методы для мониторинга производительности
func (pm *PerformanceMonitor) initSystemMetrics(systemName string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.systemMetrics[systemName] = &SystemMetrics{
		Name:        systemName,
		recentTimes: make([]time.Duration, pm.metricsWindow),
	}
}

func (pm *PerformanceMonitor) recordExecution(systemName string, executionTime time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	metrics, exists := pm.systemMetrics[systemName]
	if !exists {
		return
	}

	metrics.LastExecutionTime = executionTime
	metrics.TotalExecutions++

	if executionTime > metrics.MaxTime {
		metrics.MaxTime = executionTime
	}

	// Добавляем в скользящее окно
	metrics.recentTimes[metrics.recentIndex] = executionTime
	metrics.recentIndex = (metrics.recentIndex + 1) % pm.metricsWindow

	if !metrics.windowFilled && metrics.recentIndex == 0 {
		metrics.windowFilled = true
	}

	pm.recalculateAverage(metrics)
}

func (pm *PerformanceMonitor) recordError(systemName string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if metrics, exists := pm.systemMetrics[systemName]; exists {
		metrics.Errors++
	}
}

func (pm *PerformanceMonitor) recalculateAverage(metrics *SystemMetrics) {
	var total time.Duration

	limit := pm.metricsWindow
	if !metrics.windowFilled {
		limit = metrics.recentIndex
	}

	for i := 0; i < limit; i++ {
		total += metrics.recentTimes[i]
	}

	if limit > 0 {
		metrics.AverageTime = total / time.Duration(limit)
	}
}

// Metrics возвращает копию метрик системы
func (pm *PerformanceMonitor) Metrics(systemName string) (SystemMetrics, bool) {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	metrics, ok := pm.systemMetrics[systemName]
	if !ok {
		return SystemMetrics{}, false
	}
	m := *metrics
	m.recentTimes = nil
	return m, true
}

func (pm *PerformanceMonitor) GetSystemsStats() map[string]interface{} {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	systemsStats := make(map[string]interface{})

	for name, metrics := range pm.systemMetrics {
		systemsStats[name] = map[string]interface{}{
			"last_execution_time": metrics.LastExecutionTime,
			"average_time":        metrics.AverageTime,
			"max_time":            metrics.MaxTime,
			"total_executions":    metrics.TotalExecutions,
			"errors":              metrics.Errors,
		}
	}

	return systemsStats
}

func (gt *GameTicker) updateTickMetrics(tickTime time.Duration) {
	gt.metricsMutex.Lock()
	defer gt.metricsMutex.Unlock()

	if tickTime > gt.maxObservedTick {
		gt.maxObservedTick = tickTime
	}

	// Простое скользящее среднее
	if gt.averageTickTime == 0 {
		gt.averageTickTime = tickTime
	} else {
		gt.averageTickTime = (gt.averageTickTime*9 + tickTime) / 10
	}
}

func (gt *GameTicker) checkPerformance(tickTime time.Duration) {
	if tickTime > gt.maxTickTime {
		gt.logger.Printf("[GameTicker] КРИТИЧЕСКОЕ ПРЕДУПРЕЖДЕНИЕ: Тик превысил максимальное время! %v > %v (цель: %v)",
			tickTime, gt.maxTickTime, gt.tickDuration)
	} else if tickTime > gt.warningThreshold {
		gt.logger.Printf("[GameTicker] ПРЕДУПРЕЖДЕНИЕ: Медленный тик: %v (цель: %v)",
			tickTime, gt.tickDuration)
	}
}
