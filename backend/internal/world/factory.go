package world

import (
	"errors"
	"fmt"
	"math"

	"orrery/backend/internal/catalog"
)

// Ошибки построения иерархии. Возвращаются обернутыми в *catalog.ConfigError.
var (
	ErrNoRoot           = errors.New("no body without a parent")
	ErrMultipleRoots    = errors.New("more than one body without a parent")
	ErrUnresolvedParent = errors.New("parent does not name a body")
	ErrUnreachableBody  = errors.New("body is not reachable from the root")
	ErrDuplicateBody    = errors.New("body name is used twice")
)

// FromCatalog строит сцену из загруженного каталога
func FromCatalog(c *catalog.Catalog, cfg SceneConfig) (*Scene, error) {
	k, err := c.Constants()
	if err != nil {
		return nil, err
	}
	return Build(c.Records(), k, cfg)
}

// LoadScene читает каталог из файла и строит по нему сцену. Пустой путь
// означает встроенную солнечную систему.
func LoadScene(path string, cfg SceneConfig) (*Scene, error) {
	var (
		c   *catalog.Catalog
		err error
	)
	if path == "" {
		c, err = catalog.Default()
	} else {
		c = catalog.New()
		err = c.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return FromCatalog(c, cfg)
}

// Build превращает плоский список записей в дерево тел. Порядок записей
// не важен. Любая ошибка фатальна, частичная сцена не возвращается.
func Build(records []catalog.Record, k catalog.Constants, cfg SceneConfig) (*Scene, error) {
	var (
		root     *Body
		bodies   = make(map[string]*Body, len(records))
		children = make(map[string][]*Body)
	)

	// Сначала узлы, потом ребра: родитель может идти в списке после потомка
	for _, rec := range records {
		if _, dup := bodies[rec.Name]; dup {
			return nil, &catalog.ConfigError{Section: rec.Name, Err: ErrDuplicateBody}
		}
		body := NewBody(rec, k, cfg)
		if err := checkDerived(body); err != nil {
			return nil, err
		}
		bodies[rec.Name] = body

		if rec.IsRoot() {
			if root != nil {
				return nil, &catalog.ConfigError{
					Section: rec.Name,
					Key:     catalog.KeyParent,
					Err:     fmt.Errorf("%w: %s and %s", ErrMultipleRoots, root.Name(), rec.Name),
				}
			}
			root = body
		}
	}

	if root == nil {
		return nil, &catalog.ConfigError{Key: catalog.KeyParent, Err: ErrNoRoot}
	}

	for _, rec := range records {
		if rec.IsRoot() {
			continue
		}
		if _, ok := bodies[rec.Parent]; !ok {
			return nil, &catalog.ConfigError{
				Section: rec.Name,
				Key:     catalog.KeyParent,
				Err:     fmt.Errorf("%w: %q", ErrUnresolvedParent, rec.Parent),
			}
		}
		children[rec.Parent] = append(children[rec.Parent], bodies[rec.Name])
	}

	// Усыновляем от корня вниз. Тела, до которых не добрались, образуют цикл.
	attached := 1
	queue := []*Body{root}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, child := range children[parent.Name()] {
			if err := parent.Adopt(child); err != nil {
				return nil, &catalog.ConfigError{Section: child.Name(), Key: catalog.KeyParent, Err: err}
			}
			if err := checkDerived(child); err != nil {
				return nil, err
			}
			attached++
			queue = append(queue, child)
		}
	}

	if attached != len(bodies) {
		for _, rec := range records {
			if b := bodies[rec.Name]; b != root && b.Parent() == nil {
				return nil, &catalog.ConfigError{
					Section: rec.Name,
					Key:     catalog.KeyParent,
					Err:     fmt.Errorf("%w: parent chain of %q loops", ErrUnreachableBody, rec.Name),
				}
			}
		}
	}

	return newScene(root, cfg), nil
}

// checkDerived отклоняет тело, у которого произведение множителя и
// единицы дало бесконечность: в тике она превратится в NaN.
func checkDerived(b *Body) error {
	derived := []struct {
		key   string
		value float32
	}{
		{catalog.KeyRotationPeriod, b.rotationRate},
		{catalog.KeyOrbitalPeriod, b.orbitalRate},
		{catalog.KeyDiameter, b.scale},
		{catalog.KeyMeanDistance, b.distance},
	}
	for _, d := range derived {
		if v := float64(d.value); math.IsInf(v, 0) || math.IsNaN(v) {
			return &catalog.ConfigError{
				Section: b.Name(),
				Key:     d.key,
				Err:     fmt.Errorf("%w: derived value of %s is not finite", catalog.ErrInvalidValue, d.key),
			}
		}
	}
	return nil
}
