package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
)

//go:embed solar_system.ini
var defaultCatalog []byte

// Catalog хранит загруженные записи тел и глобальные константы.
// Заполняется один раз через Load и дальше только читается.
type Catalog struct {
	loaded    bool
	constants Constants
	records   map[string]Record
}

// New создает пустой каталог
func New() *Catalog {
	return &Catalog{records: make(map[string]Record)}
}

// Default возвращает каталог со встроенной солнечной системой
func Default() (*Catalog, error) {
	c := New()
	if err := c.Load(bytes.NewReader(defaultCatalog)); err != nil {
		return nil, fmt.Errorf("default catalog: %w", err)
	}
	return c, nil
}

// LoadFile загружает каталог из файла
func (c *Catalog) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &ConfigError{Err: fmt.Errorf("%w: %v", ErrUnreadable, err)}
	}
	defer f.Close()

	return c.Load(f)
}

// Load разбирает источник и заполняет каталог. При любой ошибке
// состояние каталога не меняется.
func (c *Catalog) Load(r io.Reader) error {
	sections, err := parseSections(r)
	if err != nil {
		return err
	}

	var (
		constants    Constants
		hasConstants bool
		records      = make(map[string]Record, len(sections))
	)

	ordinal := 0
	for _, s := range sections {
		if s.name == ConstantsSection {
			constants, err = parseConstants(s)
			if err != nil {
				return err
			}
			hasConstants = true
			continue
		}

		rec, err := parseRecord(s, ordinal)
		if err != nil {
			return err
		}
		records[rec.Name] = rec
		ordinal++
	}

	if !hasConstants {
		return &ConfigError{Section: ConstantsSection, Err: ErrNoConstants}
	}

	c.constants = constants
	c.records = records
	c.loaded = true
	return nil
}

// Constants возвращает глобальные множители
func (c *Catalog) Constants() (Constants, error) {
	if !c.loaded {
		return Constants{}, ErrNotLoaded
	}
	return c.constants, nil
}

// Record возвращает запись тела по имени
func (c *Catalog) Record(name string) (Record, error) {
	if !c.loaded {
		return Record{}, ErrNotLoaded
	}
	rec, ok := c.records[name]
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return rec, nil
}

// Records возвращает все записи, упорядоченные по (Ordinal, Name)
func (c *Catalog) Records() []Record {
	result := make([]Record, 0, len(c.records))
	for _, rec := range c.records {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Ordinal != result[j].Ordinal {
			return result[i].Ordinal < result[j].Ordinal
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// Len возвращает количество тел в каталоге
func (c *Catalog) Len() int {
	return len(c.records)
}

func parseConstants(s *section) (Constants, error) {
	var (
		k   Constants
		err error
	)
	if k.MeanDistance, err = parseFloat(s, KeyMeanDistance); err != nil {
		return k, err
	}
	if k.RotationPeriod, err = parseFloat(s, KeyRotationPeriod); err != nil {
		return k, err
	}
	if k.OrbitalPeriod, err = parseFloat(s, KeyOrbitalPeriod); err != nil {
		return k, err
	}
	if k.Diameter, err = parseFloat(s, KeyDiameter); err != nil {
		return k, err
	}

	if k.MeanDistance < 0 {
		return k, invalid(s, KeyMeanDistance, "must not be negative")
	}
	if k.Diameter <= 0 {
		return k, invalid(s, KeyDiameter, "must be positive")
	}
	return k, nil
}

func parseRecord(s *section, ordinal int) (Record, error) {
	rec := Record{Name: s.name, Ordinal: ordinal}

	if attr, ok := s.values[KeyOrdinal]; ok {
		n, err := strconv.Atoi(attr.value)
		if err != nil {
			return rec, &ConfigError{Section: s.name, Key: KeyOrdinal, Line: attr.line,
				Err: fmt.Errorf("%w: %q", ErrMalformedValue, attr.value)}
		}
		rec.Ordinal = n
	}

	texture, _, err := s.lookup(KeyTexture)
	if err != nil {
		return rec, err
	}
	rec.Texture = texture.value

	fields := []struct {
		dst  *float32
		keys []string
	}{
		{&rec.MeanDistance, []string{KeyMeanDistance}},
		{&rec.RotationPeriod, []string{KeyRotationPeriod}},
		{&rec.OrbitalPeriod, []string{KeyOrbitalPeriod}},
		{&rec.AxialTilt, []string{KeyAxialTilt}},
		{&rec.Diameter, []string{KeyDiameter}},
		{&rec.Reflectance, albedoAliases},
		{&rec.IsLit, []string{KeyIsLit}},
	}
	for _, f := range fields {
		if *f.dst, err = parseFloat(s, f.keys...); err != nil {
			return rec, err
		}
	}

	parent, _, err := s.lookup(KeyParent)
	if err != nil {
		return rec, err
	}
	rec.Parent = parent.value

	if rec.Diameter <= 0 {
		return rec, invalid(s, KeyDiameter, "must be positive")
	}
	if rec.MeanDistance < 0 {
		return rec, invalid(s, KeyMeanDistance, "must not be negative")
	}
	return rec, nil
}

// parseFloat читает обязательное числовое значение. Отсутствие ключа,
// нечисловое или бесконечное значение - ошибка, подстановки нет.
func parseFloat(s *section, keys ...string) (float32, error) {
	attr, key, err := s.lookup(keys...)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(attr.value, 32)
	if err != nil {
		return 0, &ConfigError{Section: s.name, Key: key, Line: attr.line,
			Err: fmt.Errorf("%w: %q", ErrMalformedValue, attr.value)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ConfigError{Section: s.name, Key: key, Line: attr.line,
			Err: fmt.Errorf("%w: %q is not finite", ErrInvalidValue, attr.value)}
	}
	return float32(v), nil
}

func invalid(s *section, key, reason string) error {
	line := s.line
	if attr, ok := s.values[key]; ok {
		line = attr.line
	}
	return &ConfigError{Section: s.name, Key: key, Line: line, Err: fmt.Errorf("%w: %s", ErrInvalidValue, reason)}
}
