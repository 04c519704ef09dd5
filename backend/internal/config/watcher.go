package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce - пауза после последнего события перед перезагрузкой.
// Редакторы сохраняют файл несколькими операциями подряд.
const DefaultDebounce = 200 * time.Millisecond

// Watcher следит за одним файлом (обычно каталогом тел) и сообщает
// о его изменении. Наблюдается каталог файла, так как многие редакторы
// сохраняют через переименование.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *log.Logger
}

// NewWatcher создает наблюдателя за файлом path
func NewWatcher(path string, debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	return &Watcher{
		path:     abs,
		debounce: debounce,
		watcher:  fw,
		logger:   logger,
	}, nil
}

// Run обрабатывает события до отмены контекста или закрытия
// наблюдателя. onChange вызывается из горутины Run.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.Printf("[Watcher] Файл изменен: %s", w.path)
			onChange(w.path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("[Watcher] Ошибка наблюдения: %v", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// Path возвращает абсолютный путь наблюдаемого файла
func (w *Watcher) Path() string {
	return w.path
}

// Close освобождает ресурсы наблюдателя
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
