package catalog

import (
	"errors"
	"fmt"
)

// Ошибки загрузки каталога. Все они фатальны: частично загруженный
// каталог не сохраняется.
var (
	ErrUnreadable         = errors.New("config source is unreadable")
	ErrMissingAttribute   = errors.New("required attribute is missing")
	ErrMalformedValue     = errors.New("attribute value is not a number")
	ErrInvalidValue       = errors.New("attribute value is out of range")
	ErrOrphanAttribute    = errors.New("attribute outside of any section")
	ErrDuplicateAttribute = errors.New("attribute is defined twice")
	ErrNoConstants        = errors.New("constants section is missing")
	ErrNotLoaded          = errors.New("catalog is not loaded")
	ErrNotFound           = errors.New("body record not found")
)

// ConfigError - ошибка конфигурации с указанием места, где она возникла
type ConfigError struct {
	Section string
	Key     string
	Line    int // 0, если номер строки неизвестен
	Err     error
}

func (e *ConfigError) Error() string {
	msg := "config"
	if e.Line > 0 {
		msg += fmt.Sprintf(" line %d", e.Line)
	}
	if e.Section != "" {
		msg += fmt.Sprintf(" [%s]", e.Section)
	}
	if e.Key != "" {
		msg += " " + e.Key
	}
	return msg + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError сообщает, является ли err ошибкой конфигурации
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
