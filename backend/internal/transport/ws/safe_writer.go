package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultWriteTimeout ограничивает запись одному медленному клиенту
const DefaultWriteTimeout = 5 * time.Second

// SafeWriter обеспечивает потокобезопасную запись в WebSocket. Кадры
// рассылаются из цикла симуляции, ответы на команды из горутины чтения.
type SafeWriter struct {
	conn         *websocket.Conn
	mutex        sync.Mutex
	writeTimeout time.Duration
}

// NewSafeWriter создает новый экземпляр SafeWriter
func NewSafeWriter(conn *websocket.Conn) *SafeWriter {
	return &SafeWriter{
		conn:         conn,
		writeTimeout: DefaultWriteTimeout,
	}
}

// WriteJSON потокобезопасно отправляет JSON данные через WebSocket
func (w *SafeWriter) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.WriteRaw(data)
}

// WriteRaw отправляет уже сериализованное сообщение. Используется при
// рассылке, чтобы кодировать кадр один раз на всех клиентов.
func (w *SafeWriter) WriteRaw(data []byte) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.writeTimeout > 0 {
		if err := w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
			return err
		}
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// RemoteAddr возвращает адрес клиента
func (w *SafeWriter) RemoteAddr() string {
	return w.conn.RemoteAddr().String()
}

// Close закрывает соединение
func (w *SafeWriter) Close() error {
	return w.conn.Close()
}
