package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"orrery/backend/internal/game"
	"orrery/backend/internal/transport/ws"
)

func newTestBot(pattern string) *Bot {
	return NewBot("t", "ws://localhost/ws", pattern, time.Second, 10*time.Millisecond)
}

func TestNextCommand_FlyCyclesInOrder(t *testing.T) {
	b := newTestBot("fly")
	fly := patterns["fly"]

	for i := 0; i < 2*len(fly); i++ {
		msg := b.nextCommand()
		assert.Equal(t, ws.MessageTypeCommand, msg.Type)
		assert.Equal(t, string(fly[i%len(fly)]), msg.Cmd, "step %d", i)
		assert.GreaterOrEqual(t, msg.HoldMs, int64(50))
		assert.Less(t, msg.HoldMs, int64(250))
	}
}

func TestNextCommand_TourAlwaysNextBody(t *testing.T) {
	b := newTestBot("tour")
	for i := 0; i < 3; i++ {
		assert.Equal(t, string(game.CmdNextBody), b.nextCommand().Cmd)
	}
}

func TestNextCommand_SelectUsesKnownBodies(t *testing.T) {
	b := newTestBot("select")
	b.bodies = []string{"Sun", "Earth"}

	for i := 0; i < 10; i++ {
		msg := b.nextCommand()
		assert.Equal(t, ws.CmdSelect, msg.Cmd)
		assert.Contains(t, b.bodies, msg.Body)
		assert.Zero(t, msg.HoldMs)
	}
}

func TestNextCommand_UnknownPatternFallsBackToRandomSet(t *testing.T) {
	b := newTestBot("nope")
	random := make([]string, 0, len(patterns["random"]))
	for _, c := range patterns["random"] {
		random = append(random, string(c))
	}

	for i := 0; i < 20; i++ {
		assert.Contains(t, random, b.nextCommand().Cmd)
	}
}

func TestNextCommand_SelectWithoutBodiesFallsBack(t *testing.T) {
	b := newTestBot("select")
	msg := b.nextCommand()
	assert.NotEqual(t, ws.CmdSelect, msg.Cmd)
	assert.NotEmpty(t, msg.Cmd)
}
