package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestSafeWriter_WriteJSON_Concurrency(t *testing.T) {
	received := make(chan []string, 1)

	// Создаем тестовый сервер
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()

		var msgs []string
		for i := 0; i < 10; i++ {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				t.Errorf("Error reading message: %v", err)
				break
			}
			msgs = append(msgs, string(msg))
		}
		received <- msgs
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	wsConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket server: %v", err)
	}
	defer wsConn.Close()

	writer := NewSafeWriter(wsConn)

	// Запускаем 10 горутин, каждая отправляет свое сообщение
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			time.Sleep(time.Duration(id) * time.Millisecond)

			msg := struct {
				ID  int    `json:"id"`
				Msg string `json:"msg"`
			}{
				ID:  id,
				Msg: "Test message",
			}

			if err := writer.WriteJSON(msg); err != nil {
				t.Errorf("Error writing message: %v", err)
			}
		}(i)
	}
	wg.Wait()

	select {
	case msgs := <-received:
		// Все сообщения должны дойти целыми и быть разными
		uniq := make(map[string]struct{})
		for _, msg := range msgs {
			uniq[msg] = struct{}{}
		}
		if len(uniq) != 10 {
			t.Errorf("Expected 10 unique messages, got %d", len(uniq))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive messages")
	}
}

func TestSafeWriter_Close(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()

		// Соединение будет закрыто клиентом
		_, _, _ = conn.ReadMessage()
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	wsConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket server: %v", err)
	}

	writer := NewSafeWriter(wsConn)
	if err := writer.Close(); err != nil {
		t.Errorf("Error closing connection: %v", err)
	}

	// Попытка записи в закрытое соединение должна вернуть ошибку
	if err := writer.WriteJSON("test"); err == nil {
		t.Error("Expected error when writing to closed connection, got nil")
	}
}

func TestSafeWriter_WriteJSON_UnsupportedValue(t *testing.T) {
	writer := &SafeWriter{}
	if err := writer.WriteJSON(make(chan int)); err == nil {
		t.Error("Expected marshal error for channel value")
	}
}
