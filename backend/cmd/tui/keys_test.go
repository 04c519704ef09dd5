package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"

	"orrery/backend/internal/game"
)

func TestKeyCommand(t *testing.T) {
	tests := []struct {
		name   string
		ev     *tcell.EventKey
		cmd    game.Command
		action viewAction
	}{
		{name: "space", ev: tcell.NewEventKey(tcell.KeyRune, ' ', 0), cmd: game.CmdToggleAnimation},
		{name: "upper O", ev: tcell.NewEventKey(tcell.KeyRune, 'O', 0), cmd: game.CmdToggleOrbits},
		{name: "left", ev: tcell.NewEventKey(tcell.KeyLeft, 0, 0), cmd: game.CmdPrevBody},
		{name: "right", ev: tcell.NewEventKey(tcell.KeyRight, 0, 0), cmd: game.CmdNextBody},
		{name: "lock", ev: tcell.NewEventKey(tcell.KeyRune, 'l', 0), cmd: game.CmdToggleCameraLock},
		{name: "light up", ev: tcell.NewEventKey(tcell.KeyRune, 'v', 0), cmd: game.CmdLightUp},
		{name: "faster", ev: tcell.NewEventKey(tcell.KeyRune, '+', 0), cmd: game.CmdCameraFaster},
		{name: "forward", ev: tcell.NewEventKey(tcell.KeyRune, 'W', 0), cmd: game.CmdMoveForward},
		{name: "escape", ev: tcell.NewEventKey(tcell.KeyEscape, 0, 0), action: actionQuit},
		{name: "zoom", ev: tcell.NewEventKey(tcell.KeyRune, ']', 0), action: actionZoomIn},
		{name: "mute", ev: tcell.NewEventKey(tcell.KeyRune, 'm', 0), action: actionMute},
		{name: "unbound", ev: tcell.NewEventKey(tcell.KeyRune, 'z', 0)},
		{name: "function key", ev: tcell.NewEventKey(tcell.KeyF5, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, action := keyCommand(tt.ev)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.action, action)
		})
	}
}
