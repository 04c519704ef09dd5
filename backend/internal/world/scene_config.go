package world

import "github.com/go-gl/mathgl/mgl32"

// Значения по умолчанию, перенесенные из исходной демо-сцены
const (
	// DefaultClearanceMultiplier отодвигает орбиту спутника от поверхности
	// родителя: radius/2 * 20. Визуальная настройка, а не физика.
	DefaultClearanceMultiplier float32 = 20

	// DefaultCameraOffsetMultiplier - отступ камеры от тела в диаметрах
	DefaultCameraOffsetMultiplier float32 = 20

	DefaultOrbitDensity float32 = 0.05 // вершин на единицу длины орбиты

	DefaultLightIntensity      float32 = 93300000.0 * 100000
	DefaultLightModulationRate float32 = 10000000
)

// OrbitConfig содержит настройки отрисовки орбит
type OrbitConfig struct {
	Enabled bool
	Density float32    // вершин на единицу длины
	Color   mgl32.Vec4 // RGBA
}

// LightConfig содержит настройки солнечного света
type LightConfig struct {
	Intensity      float32
	ModulationRate float32 // изменение интенсивности в секунду
}

// SceneConfig объединяет все настройки построения сцены. Передается
// явно в Build, глобального состояния нет.
type SceneConfig struct {
	ClearanceMultiplier    float32
	CameraOffsetMultiplier float32
	Orbit                  OrbitConfig
	Light                  LightConfig
}

// DefaultSceneConfig возвращает конфигурацию по умолчанию
func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		ClearanceMultiplier:    DefaultClearanceMultiplier,
		CameraOffsetMultiplier: DefaultCameraOffsetMultiplier,
		Orbit: OrbitConfig{
			Enabled: true,
			Density: DefaultOrbitDensity,
			Color:   mgl32.Vec4{1, 1, 1, 1},
		},
		Light: LightConfig{
			Intensity:      DefaultLightIntensity,
			ModulationRate: DefaultLightModulationRate,
		},
	}
}
