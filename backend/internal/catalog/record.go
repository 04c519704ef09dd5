package catalog

// Имена ключей в секциях файла каталога
const (
	KeyOrdinal        = "Ordinal"
	KeyTexture        = "Texture"
	KeyMeanDistance   = "MeanDistance"
	KeyRotationPeriod = "RotationPeriod"
	KeyOrbitalPeriod  = "OrbitalPeriod"
	KeyAxialTilt      = "AxialTilt"
	KeyDiameter       = "Diameter"
	KeyAlbedo         = "Albedo"
	KeyIsLit          = "IsLit"
	KeyParent         = "Parent"
)

// ConstantsSection - зарезервированное имя секции с глобальными множителями
const ConstantsSection = "Constants"

// albedoAliases - допустимые написания ключа отражательной способности.
// "Albeido" встречается в старых файлах контента.
var albedoAliases = []string{KeyAlbedo, "Albeido", "Reflectance"}

// Record описывает одно небесное тело так, как оно задано в конфигурации.
// После загрузки не изменяется.
type Record struct {
	Name    string
	Ordinal int
	Texture string

	// Безразмерные множители, применяются к Constants
	MeanDistance   float32
	RotationPeriod float32
	OrbitalPeriod  float32
	Diameter       float32

	AxialTilt float32 // градусы

	// Параметры материала, нужны только рендереру
	Reflectance float32
	IsLit       float32

	Parent string // пусто у корня (звезды)
}

// IsRoot сообщает, является ли тело корнем иерархии
func (r Record) IsRoot() bool {
	return r.Parent == ""
}

// Lit сообщает, освещается ли тело источником света
func (r Record) Lit() bool {
	return r.IsLit > 0
}

// Constants - глобальные масштабные множители из секции [Constants]
type Constants struct {
	MeanDistance   float32
	RotationPeriod float32
	OrbitalPeriod  float32
	Diameter       float32
}
