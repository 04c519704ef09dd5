package main

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"orrery/backend/internal/game"
)

// Действия просмотрщика, не относящиеся к управлению сценой
type viewAction int

const (
	actionNone viewAction = iota
	actionQuit
	actionZoomIn
	actionZoomOut
	actionMute
)

var runeCommands = map[rune]game.Command{
	' ': game.CmdToggleAnimation,
	'o': game.CmdToggleOrbits,
	'l': game.CmdToggleCameraLock,
	'i': game.CmdToggleInfo,
	'v': game.CmdLightUp,
	'b': game.CmdLightDown,
	'+': game.CmdCameraFaster,
	'=': game.CmdCameraFaster,
	'-': game.CmdCameraSlower,
	'w': game.CmdMoveForward,
	's': game.CmdMoveBackward,
	'a': game.CmdMoveLeft,
	'd': game.CmdMoveRight,
	'e': game.CmdMoveUp,
	'q': game.CmdMoveDown,
}

var runeActions = map[rune]viewAction{
	']': actionZoomIn,
	'[': actionZoomOut,
	'm': actionMute,
}

// keyCommand переводит нажатие в команду управления или действие просмотрщика
func keyCommand(ev *tcell.EventKey) (game.Command, viewAction) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return "", actionQuit
	case tcell.KeyLeft:
		return game.CmdPrevBody, actionNone
	case tcell.KeyRight:
		return game.CmdNextBody, actionNone
	case tcell.KeyRune:
		r := unicode.ToLower(ev.Rune())
		if cmd, ok := runeCommands[r]; ok {
			return cmd, actionNone
		}
		return "", runeActions[r]
	}
	return "", actionNone
}
