// Бот для нагрузочной проверки: подключается к серверу и шлет команды
// управления по выбранному сценарию.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"orrery/backend/internal/game"
	"orrery/backend/internal/transport/ws"
)

// Сценарии команд
var patterns = map[string][]game.Command{
	"tour": {game.CmdNextBody},
	"fly": {
		game.CmdMoveForward, game.CmdMoveForward, game.CmdMoveLeft,
		game.CmdMoveBackward, game.CmdMoveRight, game.CmdMoveUp, game.CmdMoveDown,
	},
	"random": {
		game.CmdToggleAnimation, game.CmdToggleOrbits, game.CmdNextBody, game.CmdPrevBody,
		game.CmdToggleCameraLock, game.CmdToggleInfo, game.CmdLightUp, game.CmdLightDown,
		game.CmdCameraFaster, game.CmdCameraSlower, game.CmdMoveForward, game.CmdMoveBackward,
	},
}

// Bot представляет собой бота, который подключается к серверу
type Bot struct {
	ID          string
	ServerURL   string
	Conn        *websocket.Conn
	Stats       BotStats
	Pattern     string
	Duration    time.Duration
	CommandRate time.Duration
	mu          sync.RWMutex
	writeMu     sync.Mutex // Мьютекс для синхронизации записи в WebSocket
	running     bool
	step        int
	bodies      []string
}

// BotStats содержит статистику работы бота
type BotStats struct {
	CommandsSent      int
	ResponsesReceived int
	Rejected          int
	Frames            int
	Errors            int
	StartTime         time.Time
	mu                sync.RWMutex
}

// NewBot создает нового бота
func NewBot(id, serverURL, pattern string, duration, commandRate time.Duration) *Bot {
	return &Bot{
		ID:          id,
		ServerURL:   serverURL,
		Pattern:     pattern,
		Duration:    duration,
		CommandRate: commandRate,
		Stats:       BotStats{StartTime: time.Now()},
	}
}

// Connect подключается к серверу
func (b *Bot) Connect() error {
	u, err := url.Parse(b.ServerURL)
	if err != nil {
		return fmt.Errorf("неверный URL: %w", err)
	}

	log.Printf("[Bot %s] Подключение к %s", b.ID, u.String())

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("ошибка подключения: %w", err)
	}

	b.mu.Lock()
	b.Conn = conn
	b.running = true
	b.mu.Unlock()

	log.Printf("[Bot %s] Успешно подключен", b.ID)
	return nil
}

// Disconnect отключается от сервера
func (b *Bot) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Conn != nil && b.running {
		b.running = false
		b.Conn.Close()
		log.Printf("[Bot %s] Отключен", b.ID)
	}
}

func (b *Bot) isRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

// nextCommand выбирает следующую команду сценария
func (b *Bot) nextCommand() ws.CommandMessage {
	msg := ws.CommandMessage{Type: ws.MessageTypeCommand, ClientTime: time.Now().UnixMilli()}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Pattern == "select" && len(b.bodies) > 0 {
		msg.Cmd = ws.CmdSelect
		msg.Body = b.bodies[rand.Intn(len(b.bodies))]
		return msg
	}

	cmds, ok := patterns[b.Pattern]
	if !ok {
		cmds = patterns["random"]
	}
	if b.Pattern == "random" {
		msg.Cmd = string(cmds[rand.Intn(len(cmds))])
	} else {
		msg.Cmd = string(cmds[b.step%len(cmds)])
		b.step++
	}
	msg.HoldMs = 50 + rand.Int63n(200)
	return msg
}

func (b *Bot) write(v interface{}) error {
	b.mu.RLock()
	conn := b.Conn
	b.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("соединение не установлено")
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return conn.WriteJSON(v)
}

// sendCommand отправляет очередную команду
func (b *Bot) sendCommand() error {
	cmd := b.nextCommand()
	if err := b.write(cmd); err != nil {
		b.Stats.mu.Lock()
		b.Stats.Errors++
		b.Stats.mu.Unlock()
		return fmt.Errorf("ошибка отправки команды: %w", err)
	}

	b.Stats.mu.Lock()
	b.Stats.CommandsSent++
	b.Stats.mu.Unlock()
	return nil
}

// handleMessage обрабатывает входящие сообщения
func (b *Bot) handleMessage(messageType int, data []byte) {
	if messageType != websocket.TextMessage {
		return
	}

	msg, err := ws.ParseMessage(data)
	if err != nil {
		log.Printf("[Bot %s] Ошибка разбора сообщения: %v", b.ID, err)
		return
	}

	switch m := msg.(type) {
	case *ws.AckMessage:
		b.Stats.mu.Lock()
		b.Stats.ResponsesReceived++
		if m.Status != ws.AckStatusOK {
			b.Stats.Rejected++
		}
		b.Stats.mu.Unlock()
		if m.Status != ws.AckStatusOK {
			log.Printf("[Bot %s] Команда %s отклонена: %s", b.ID, m.Cmd, m.Error)
		} else if m.State != nil {
			log.Printf("[Bot %s] %s -> активное тело %s, камера (%.1f, %.1f, %.1f)",
				b.ID, m.Cmd, m.State.ActiveBody, m.State.Camera.X, m.State.Camera.Y, m.State.Camera.Z)
		}

	case *ws.PingMessage:
		if err := b.write(ws.PongMessage{Type: ws.MessageTypePong, ServerTime: m.ServerTime}); err != nil {
			log.Printf("[Bot %s] Ошибка отправки pong: %v", b.ID, err)
		}

	case *ws.PongMessage:
		log.Printf("[Bot %s] RTT %d мс", b.ID, time.Now().UnixMilli()-m.ClientTime)

	case *ws.InfoMessage:
		log.Printf("[Bot %s] Информация: %s", b.ID, m.Message)

	case *ws.SceneMessage:
		names := make([]string, 0, len(m.Bodies))
		for _, body := range m.Bodies {
			names = append(names, body.Name)
		}
		b.mu.Lock()
		b.bodies = names
		b.mu.Unlock()
		log.Printf("[Bot %s] Получена сцена: %d тел", b.ID, len(names))

	case *ws.BatchUpdateMessage:
		b.Stats.mu.Lock()
		b.Stats.Frames++
		b.Stats.mu.Unlock()
	}
}

// Run запускает бота
func (b *Bot) Run() error {
	if err := b.Connect(); err != nil {
		return err
	}
	defer b.Disconnect()

	go func() {
		for b.isRunning() {
			messageType, data, err := b.Conn.ReadMessage()
			if err != nil {
				if b.isRunning() {
					log.Printf("[Bot %s] Ошибка чтения сообщения: %v", b.ID, err)
					b.Stats.mu.Lock()
					b.Stats.Errors++
					b.Stats.mu.Unlock()
				}
				return
			}
			b.handleMessage(messageType, data)
		}
	}()

	go func() {
		pingTicker := time.NewTicker(5 * time.Second)
		defer pingTicker.Stop()

		for range pingTicker.C {
			if !b.isRunning() {
				return
			}
			if err := b.write(ws.PingMessage{Type: ws.MessageTypePing, ClientTime: time.Now().UnixMilli()}); err != nil {
				log.Printf("[Bot %s] Ошибка отправки ping: %v", b.ID, err)
			}
		}
	}()

	commandTicker := time.NewTicker(b.CommandRate)
	defer commandTicker.Stop()

	endTime := time.Now().Add(b.Duration)
	for b.isRunning() && time.Now().Before(endTime) {
		<-commandTicker.C
		if err := b.sendCommand(); err != nil {
			log.Printf("[Bot %s] %v", b.ID, err)
		}
	}

	log.Printf("[Bot %s] Завершение работы", b.ID)
	return nil
}

// PrintStats выводит статистику бота
func (b *Bot) PrintStats() {
	b.Stats.mu.RLock()
	defer b.Stats.mu.RUnlock()

	duration := time.Since(b.Stats.StartTime)
	log.Printf("[Bot %s] Статистика:", b.ID)
	log.Printf("  Время работы: %v", duration)
	log.Printf("  Команд отправлено: %d", b.Stats.CommandsSent)
	log.Printf("  Ответов получено: %d (отклонено %d)", b.Stats.ResponsesReceived, b.Stats.Rejected)
	log.Printf("  Кадров получено: %d", b.Stats.Frames)
	log.Printf("  Ошибок: %d", b.Stats.Errors)
	if b.Stats.CommandsSent > 0 {
		log.Printf("  Частота команд: %.2f команд/сек", float64(b.Stats.CommandsSent)/duration.Seconds())
	}
}

func main() {
	var (
		serverURL   = flag.String("url", "ws://localhost:8080/ws", "URL WebSocket сервера")
		botID       = flag.String("id", "bot1", "ID бота")
		pattern     = flag.String("pattern", "tour", "Сценарий команд (tour, fly, random, select)")
		duration    = flag.Duration("duration", 30*time.Second, "Длительность работы бота")
		commandRate = flag.Duration("rate", 500*time.Millisecond, "Частота отправки команд")
	)
	flag.Parse()

	bot := NewBot(*botID, *serverURL, *pattern, *duration, *commandRate)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		log.Printf("[Bot %s] Получен сигнал прерывания, завершение работы...", bot.ID)
		bot.Disconnect()
		bot.PrintStats()
		os.Exit(0)
	}()

	if err := bot.Run(); err != nil {
		log.Printf("[Bot %s] Ошибка: %v", bot.ID, err)
		os.Exit(1)
	}
	bot.PrintStats()
}
