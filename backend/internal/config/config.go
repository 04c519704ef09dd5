// Package config загружает настройки сервера из TOML или YAML файла.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"orrery/backend/internal/world"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrInvalidConfig     = errors.New("invalid config")
)

// Duration - time.Duration, записанная в файле строкой вида "50ms"
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std возвращает значение как time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServerConfig настройки сервера симуляции
type ServerConfig struct {
	WSAddr         string   `toml:"ws_addr" yaml:"ws_addr"`
	GRPCAddr       string   `toml:"grpc_addr" yaml:"grpc_addr"`
	TPS            int      `toml:"tps" yaml:"tps"`
	StreamInterval Duration `toml:"stream_interval" yaml:"stream_interval"`

	// Пустой путь означает встроенную солнечную систему
	CatalogPath   string `toml:"catalog_path" yaml:"catalog_path"`
	WatchCatalog  bool   `toml:"watch_catalog" yaml:"watch_catalog"`
	StartAnimated bool   `toml:"start_animated" yaml:"start_animated"`

	Scene      SceneSettings      `toml:"scene" yaml:"scene"`
	Telemetry  TelemetrySettings  `toml:"telemetry" yaml:"telemetry"`
	NetworkSim NetworkSimSettings `toml:"network_sim" yaml:"network_sim"`
}

// SceneSettings настройки построения сцены
type SceneSettings struct {
	ClearanceMultiplier    float32    `toml:"clearance_multiplier" yaml:"clearance_multiplier"`
	CameraOffsetMultiplier float32    `toml:"camera_offset_multiplier" yaml:"camera_offset_multiplier"`
	OrbitsEnabled          bool       `toml:"orbits_enabled" yaml:"orbits_enabled"`
	OrbitDensity           float32    `toml:"orbit_density" yaml:"orbit_density"`
	OrbitColor             [4]float32 `toml:"orbit_color" yaml:"orbit_color"`
	LightIntensity         float32    `toml:"light_intensity" yaml:"light_intensity"`
	LightModulationRate    float32    `toml:"light_modulation_rate" yaml:"light_modulation_rate"`
}

// TelemetrySettings настройки телеметрии
type TelemetrySettings struct {
	Enabled       bool     `toml:"enabled" yaml:"enabled"`
	MaxEntries    int      `toml:"max_entries" yaml:"max_entries"`
	PrintInterval Duration `toml:"print_interval" yaml:"print_interval"`
	SampleEvery   uint64   `toml:"sample_every" yaml:"sample_every"`
}

// NetworkSimSettings имитация задержек и потерь для исходящих WebSocket сообщений
type NetworkSimSettings struct {
	Enabled         bool     `toml:"enabled" yaml:"enabled"`
	BaseLatency     Duration `toml:"base_latency" yaml:"base_latency"`
	LatencyVariance Duration `toml:"latency_variance" yaml:"latency_variance"`
	PacketLoss      float64  `toml:"packet_loss" yaml:"packet_loss"`
}

// DefaultServerConfig возвращает настройки по умолчанию
func DefaultServerConfig() ServerConfig {
	scene := world.DefaultSceneConfig()
	return ServerConfig{
		WSAddr:         ":8080",
		GRPCAddr:       ":9090",
		TPS:            60,
		StreamInterval: Duration(50 * time.Millisecond),
		WatchCatalog:   true,
		Scene: SceneSettings{
			ClearanceMultiplier:    scene.ClearanceMultiplier,
			CameraOffsetMultiplier: scene.CameraOffsetMultiplier,
			OrbitsEnabled:          scene.Orbit.Enabled,
			OrbitDensity:           scene.Orbit.Density,
			OrbitColor:             scene.Orbit.Color,
			LightIntensity:         scene.Light.Intensity,
			LightModulationRate:    scene.Light.ModulationRate,
		},
		Telemetry: TelemetrySettings{
			Enabled:       true,
			MaxEntries:    200,
			PrintInterval: Duration(30 * time.Second),
			SampleEvery:   60,
		},
	}
}

// Load читает конфигурацию из файла. Формат выбирается по расширению:
// .toml, .yaml или .yml. Отсутствующие ключи сохраняют значения по
// умолчанию, неизвестные ключи считаются ошибкой.
func Load(path string) (ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Decode(bytes.NewReader(data), filepath.Ext(path))
	if err != nil {
		return ServerConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode разбирает конфигурацию в формате, заданном расширением
func Decode(r io.Reader, ext string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
			return ServerConfig{}, err
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return ServerConfig{}, err
		}
	default:
		return ServerConfig{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// Validate проверяет значения, которые нельзя исправить молча
func (c ServerConfig) Validate() error {
	switch {
	case c.TPS <= 0:
		return fmt.Errorf("%w: tps must be positive, got %d", ErrInvalidConfig, c.TPS)
	case c.StreamInterval < 0:
		return fmt.Errorf("%w: stream_interval must not be negative", ErrInvalidConfig)
	case c.Scene.ClearanceMultiplier < 0:
		return fmt.Errorf("%w: scene.clearance_multiplier must not be negative", ErrInvalidConfig)
	case c.Scene.OrbitDensity < 0:
		return fmt.Errorf("%w: scene.orbit_density must not be negative", ErrInvalidConfig)
	case c.Scene.LightIntensity < 0:
		return fmt.Errorf("%w: scene.light_intensity must not be negative", ErrInvalidConfig)
	case c.Telemetry.MaxEntries < 0:
		return fmt.Errorf("%w: telemetry.max_entries must not be negative", ErrInvalidConfig)
	case c.NetworkSim.PacketLoss < 0 || c.NetworkSim.PacketLoss > 1:
		return fmt.Errorf("%w: network_sim.packet_loss must be within [0, 1]", ErrInvalidConfig)
	case c.NetworkSim.BaseLatency < 0 || c.NetworkSim.LatencyVariance < 0:
		return fmt.Errorf("%w: network_sim latencies must not be negative", ErrInvalidConfig)
	}
	return nil
}

// SceneConfig переводит настройки в конфигурацию сцены
func (c ServerConfig) SceneConfig() world.SceneConfig {
	return world.SceneConfig{
		ClearanceMultiplier:    c.Scene.ClearanceMultiplier,
		CameraOffsetMultiplier: c.Scene.CameraOffsetMultiplier,
		Orbit: world.OrbitConfig{
			Enabled: c.Scene.OrbitsEnabled,
			Density: c.Scene.OrbitDensity,
			Color:   mgl32.Vec4(c.Scene.OrbitColor),
		},
		Light: world.LightConfig{
			Intensity:      c.Scene.LightIntensity,
			ModulationRate: c.Scene.LightModulationRate,
		},
	}
}
