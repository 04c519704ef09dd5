package main

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"

	"orrery/backend/internal/game"
)

func TestApplyHeldKeys_LogsCommandError(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	controls := game.NewControls(game.NewSceneHolder(nil))

	keys := make([]uint8, sdl.NUM_SCANCODES)
	keys[sdl.SCANCODE_W] = 1

	applyHeldKeys(controls, keys, 16*time.Millisecond, logger)

	assert.Contains(t, buf.String(), "[SDL] Команда "+string(game.CmdMoveForward))
	assert.Contains(t, buf.String(), game.ErrNoScene.Error())
}

func TestApplyHeldKeys_IdleKeyboardIsQuiet(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	controls := game.NewControls(game.NewSceneHolder(nil))

	applyHeldKeys(controls, make([]uint8, sdl.NUM_SCANCODES), 16*time.Millisecond, logger)
	applyHeldKeys(controls, nil, 16*time.Millisecond, logger)

	assert.Empty(t, buf.String())
}
