package telemetry

import (
	"encoding/json"
	"log"
	"math"
	"sort"
	"sync"
	"time"
)

// Значения по умолчанию
const (
	DefaultMaxEntries    = 200
	DefaultPrintInterval = 2 * time.Second
)

// Vector3 структура для 3D вектора
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TelemetryData запись о состоянии тела на одном тике
type TelemetryData struct {
	Timestamp     int64   `json:"timestamp"` // Время в миллисекундах
	Tick          uint64  `json:"tick"`
	Body          string  `json:"body"`
	Parent        string  `json:"parent,omitempty"`
	Position      Vector3 `json:"position"`
	RotationAngle float64 `json:"rotation_angle"`
	OrbitalAngle  float64 `json:"orbital_angle"`
	Diameter      float64 `json:"diameter"`
	Speed         float64 `json:"speed"` // Мировая скорость по разнице позиций, ед/с
}

// TelemetryManager собирает последние состояния тел в кольцевой буфер
// и периодически печатает сводку
type TelemetryManager struct {
	enabled    bool
	data       []TelemetryData
	mutex      sync.RWMutex
	maxEntries int

	// Последняя позиция каждого тела для оценки скорости
	lastPositions map[string]Vector3

	// Счетчики для статистики
	counters      map[string]int
	lastPrint     time.Time
	printInterval time.Duration

	logger *log.Logger
	now    func() time.Time
}

// NewTelemetryManager создает новый менеджер телеметрии
func NewTelemetryManager(logger *log.Logger, maxEntries int, printInterval time.Duration) *TelemetryManager {
	if logger == nil {
		logger = log.Default()
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &TelemetryManager{
		enabled:       true,
		data:          make([]TelemetryData, 0, maxEntries),
		maxEntries:    maxEntries,
		lastPositions: make(map[string]Vector3),
		counters:      make(map[string]int),
		lastPrint:     time.Now(),
		printInterval: printInterval,
		logger:        logger,
		now:           time.Now,
	}
}

// LogBodyState записывает состояние тела. dt - время с предыдущей записи
// этого тела, по нему оценивается скорость.
func (tm *TelemetryManager) LogBodyState(entry TelemetryData, dt time.Duration) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return
	}

	if prev, ok := tm.lastPositions[entry.Body]; ok && dt > 0 {
		entry.Speed = distance(prev, entry.Position) / dt.Seconds()
	}
	tm.lastPositions[entry.Body] = entry.Position

	if entry.Timestamp == 0 {
		entry.Timestamp = tm.now().UnixMilli()
	}

	tm.data = append(tm.data, entry)

	// Ограничиваем размер буфера
	if len(tm.data) > tm.maxEntries {
		tm.data = tm.data[len(tm.data)-tm.maxEntries:]
	}

	tm.counters["body_samples"]++
}

// LogEvent увеличивает счетчик события, например принятой команды
func (tm *TelemetryManager) LogEvent(name string) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return
	}
	tm.counters[name]++
}

// PrintSummary выводит сводку, если прошел интервал печати.
// Возвращает true, если сводка была напечатана.
func (tm *TelemetryManager) PrintSummary() bool {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return false
	}

	now := tm.now()
	if now.Sub(tm.lastPrint) < tm.printInterval {
		return false
	}

	tm.logger.Println("🔬 [Telemetry] ===== ТЕЛЕМЕТРИЯ СЦЕНЫ =====")
	tm.logger.Printf("📊 [Telemetry] Всего записей: %d", len(tm.data))

	keys := make([]string, 0, len(tm.counters))
	for key := range tm.counters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		tm.logger.Printf("📈 [Telemetry] %s: %d", key, tm.counters[key])
	}

	tm.printRecentBodyData()

	// Сброс счетчиков
	tm.counters = make(map[string]int)
	tm.lastPrint = now

	tm.logger.Println("🔬 [Telemetry] =============================")
	return true
}

// printRecentBodyData выводит последнее состояние каждого тела
func (tm *TelemetryManager) printRecentBodyData() {
	for _, data := range tm.latestLocked() {
		timestamp := time.UnixMilli(data.Timestamp)

		tm.logger.Printf("🪐 [Telemetry] %s [%s] тик %d:", data.Body, timestamp.Format("15:04:05.000"), data.Tick)
		tm.logger.Printf("   📍 Позиция: (%.2f, %.2f, %.2f)",
			data.Position.X, data.Position.Y, data.Position.Z)
		tm.logger.Printf("   🔄 Вращение: %.3f рад, орбита: %.3f рад", data.RotationAngle, data.OrbitalAngle)
		tm.logger.Printf("   🏃 Скорость: %.2f", data.Speed)
	}
}

// latestLocked возвращает последнюю запись каждого тела, отсортированную по имени
func (tm *TelemetryManager) latestLocked() []TelemetryData {
	seen := make(map[string]bool)
	latest := make([]TelemetryData, 0)

	for i := len(tm.data) - 1; i >= 0; i-- {
		entry := tm.data[i]
		if seen[entry.Body] {
			continue
		}
		seen[entry.Body] = true
		latest = append(latest, entry)
	}

	sort.Slice(latest, func(i, j int) bool { return latest[i].Body < latest[j].Body })
	return latest
}

// Latest возвращает последнюю запись каждого тела
func (tm *TelemetryManager) Latest() []TelemetryData {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	return tm.latestLocked()
}

// Entries возвращает копию буфера
func (tm *TelemetryManager) Entries() []TelemetryData {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	out := make([]TelemetryData, len(tm.data))
	copy(out, tm.data)
	return out
}

// Counter возвращает значение счетчика с последней сводки
func (tm *TelemetryManager) Counter(name string) int {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	return tm.counters[name]
}

// GetTelemetryJSON возвращает телеметрию в JSON формате
func (tm *TelemetryManager) GetTelemetryJSON() (string, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	jsonData, err := json.MarshalIndent(tm.data, "", "  ")
	if err != nil {
		return "", err
	}

	return string(jsonData), nil
}

// SetEnabled включает/выключает телеметрию
func (tm *TelemetryManager) SetEnabled(enabled bool) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.enabled = enabled
	tm.logger.Printf("🔬 [Telemetry] Телеметрия %s", map[bool]string{true: "включена", false: "выключена"}[enabled])
}

// Enabled сообщает, включена ли телеметрия
func (tm *TelemetryManager) Enabled() bool {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	return tm.enabled
}

// Clear очищает все данные телеметрии
func (tm *TelemetryManager) Clear() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.data = make([]TelemetryData, 0, tm.maxEntries)
	tm.lastPositions = make(map[string]Vector3)
	tm.counters = make(map[string]int)
	tm.logger.Println("🔬 [Telemetry] Данные телеметрии очищены")
}

func distance(a, b Vector3) float64 {
	dx, dy, dz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
