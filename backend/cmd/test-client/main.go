package main

import (
	"flag"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"orrery/backend/internal/game"
	"orrery/backend/internal/transport/ws"
)

func main() {
	addr := flag.String("url", "ws://localhost:8080/ws", "URL WebSocket сервера")
	count := flag.Int("n", 10, "Сколько сообщений прочитать")
	flag.Parse()

	// Подключаемся к серверу
	u, err := url.Parse(*addr)
	if err != nil {
		log.Fatalf("Неверный URL: %v", err)
	}

	log.Printf("Подключение к %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Ошибка подключения: %v", err)
	}
	defer conn.Close()

	log.Printf("Успешно подключен")

	// Включаем анимацию, чтобы кадры менялись
	if err := conn.WriteJSON(ws.CommandMessage{
		Type:       ws.MessageTypeCommand,
		Cmd:        string(game.CmdToggleAnimation),
		ClientTime: time.Now().UnixMilli(),
	}); err != nil {
		log.Fatalf("Ошибка отправки команды: %v", err)
	}

	for i := 0; i < *count; i++ {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Ошибка чтения сообщения: %v", err)
			break
		}

		msg, err := ws.ParseMessage(data)
		if err != nil {
			log.Printf("Ошибка разбора сообщения: %v", err)
			continue
		}

		switch m := msg.(type) {
		case *ws.InfoMessage:
			log.Printf("INFO: %s", m.Message)

		case *ws.SceneMessage:
			log.Printf("SCENE: %d тел, %d орбит", len(m.Bodies), len(m.Orbits))
			for _, b := range m.Bodies {
				log.Printf("  %-10s родитель=%-8s радиус орбиты=%.1f", b.Name, b.Parent, b.OrbitRadius)
			}

		case *ws.AckMessage:
			log.Printf("ACK: %s %s %s", m.Cmd, m.Status, m.Error)

		case *ws.BatchUpdateMessage:
			if len(m.Bodies) > 1 {
				p := m.Bodies[1].Position
				log.Printf("FRAME %d: %s (%.1f, %.1f, %.1f)", m.Tick, m.Bodies[1].Name, p.X, p.Y, p.Z)
			}

		case *ws.PingMessage:
			conn.WriteJSON(ws.PongMessage{Type: ws.MessageTypePong, ServerTime: m.ServerTime})

		default:
			log.Printf("Сообщение %T", m)
		}
	}

	log.Printf("Тест завершен")
}
