package catalog

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	commentPattern       = regexp.MustCompile(`^\s*#.*$`)
	sectionTagPattern    = regexp.MustCompile(`^\s*\[\s*([A-Za-z0-9_]+)\s*\]\s*$`)
	attributeLinePattern = regexp.MustCompile(`^\s*([^=]+)=(.*)$`)
)

// attribute - сырое значение атрибута вместе с номером строки
type attribute struct {
	value string
	line  int
}

// section - сырые пары ключ/значение одной секции
type section struct {
	name   string
	line   int
	values map[string]attribute
}

// lookup возвращает значение ключа или ошибку ErrMissingAttribute
func (s *section) lookup(keys ...string) (attribute, string, error) {
	for _, key := range keys {
		if attr, ok := s.values[key]; ok {
			return attr, key, nil
		}
	}
	return attribute{}, keys[0], &ConfigError{Section: s.name, Key: keys[0], Line: s.line, Err: ErrMissingAttribute}
}

// parseSections разбирает построчный формат каталога на секции.
// Возвращает секции в порядке их первого появления.
func parseSections(r io.Reader) ([]*section, error) {
	var (
		sections []*section
		byName   = make(map[string]*section)
		current  *section
		lineNo   int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if commentPattern.MatchString(line) {
			continue
		}

		if m := sectionTagPattern.FindStringSubmatch(line); m != nil {
			name := m[1]
			// Повторный заголовок продолжает уже открытую секцию
			if existing, ok := byName[name]; ok {
				current = existing
				continue
			}
			current = &section{name: name, line: lineNo, values: make(map[string]attribute)}
			byName[name] = current
			sections = append(sections, current)
			continue
		}

		m := attributeLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		key := strings.TrimSpace(m[1])
		value := strings.TrimSpace(m[2])
		if current == nil {
			return nil, &ConfigError{Key: key, Line: lineNo, Err: ErrOrphanAttribute}
		}
		if prev, dup := current.values[key]; dup {
			return nil, &ConfigError{
				Section: current.name,
				Key:     key,
				Line:    lineNo,
				Err:     fmt.Errorf("%w (first at line %d)", ErrDuplicateAttribute, prev.line),
			}
		}
		current.values[key] = attribute{value: value, line: lineNo}
	}

	if err := scanner.Err(); err != nil {
		return nil, &ConfigError{Line: lineNo, Err: fmt.Errorf("%w: %v", ErrUnreadable, err)}
	}

	return sections, nil
}
