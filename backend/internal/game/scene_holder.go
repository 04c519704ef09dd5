package game

import (
	"sync/atomic"

	"orrery/backend/internal/world"
)

// SceneHolder хранит текущую сцену. Сцена целиком заменяется при
// перезагрузке каталога, живая иерархия никогда не перестраивается.
type SceneHolder struct {
	scene atomic.Pointer[world.Scene]
}

// NewSceneHolder создает хранилище с начальной сценой (может быть nil)
func NewSceneHolder(scene *world.Scene) *SceneHolder {
	h := &SceneHolder{}
	if scene != nil {
		h.scene.Store(scene)
	}
	return h
}

// Scene возвращает текущую сцену или nil, если она еще не загружена
func (h *SceneHolder) Scene() *world.Scene {
	return h.scene.Load()
}

// Replace ставит новую сцену. Флаг анимации и яркость света переносятся
// из старой сцены до публикации: читатель не видит новую сцену со
// сброшенным состоянием. Replace вызывается из одной горутины перезагрузки.
func (h *SceneHolder) Replace(scene *world.Scene) *world.Scene {
	old := h.scene.Load()
	if old != nil && scene != nil {
		scene.SetAnimationEnabled(old.AnimationEnabled())
		scene.Light().SetIntensity(old.LightIntensity())
	}
	h.scene.Store(scene)
	return old
}
