package ws

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"orrery/backend/internal/game"
)

const (
	DefaultPingInterval = 2 * time.Second        // Интервал отправки пингов
	DefaultHoldDuration = 100 * time.Millisecond // Удержание клавиши, если клиент его не указал
)

// MessageHandler - тип функции обработчика сообщений
type MessageHandler func(conn *SafeWriter, message interface{}) error

// EventRecorder получает имена принятых команд, например телеметрия
type EventRecorder interface {
	LogEvent(name string)
}

// WSServer раздает сцену клиентам и принимает от них команды
type WSServer struct {
	upgrader           websocket.Upgrader
	holder             *game.SceneHolder
	controls           *game.Controls
	handlers           map[string]MessageHandler
	connectionHandlers []func(conn *SafeWriter)
	pingInterval       time.Duration
	events             EventRecorder
	logger             *log.Logger

	clients   map[*SafeWriter]bool
	clientsMu sync.RWMutex

	// Имитация сетевых условий
	networkSim      NetworkSimulation
	rng             *rand.Rand
	simMu           sync.Mutex
	delayedMessages chan DelayedMessage

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWSServer создает новый экземпляр WebSocket сервера
func NewWSServer(holder *game.SceneHolder, controls *game.Controls, logger *log.Logger) *WSServer {
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	server := &WSServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		holder:          holder,
		controls:        controls,
		handlers:        make(map[string]MessageHandler),
		pingInterval:    DefaultPingInterval,
		logger:          logger,
		clients:         make(map[*SafeWriter]bool),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		delayedMessages: make(chan DelayedMessage, 1000),
		ctx:             ctx,
		cancel:          cancel,
	}

	// Регистрируем стандартные обработчики
	server.RegisterHandler(MessageTypePing, server.handlePing)
	server.RegisterHandler(MessageTypePong, server.handlePong)
	server.RegisterHandler(MessageTypeCommand, server.handleCmd)

	go server.processDelayedMessages(ctx)

	return server
}

// RegisterHandler регистрирует обработчик для конкретного типа сообщений.
// Вызывается до начала приема соединений.
func (s *WSServer) RegisterHandler(messageType string, handler MessageHandler) {
	s.handlers[messageType] = handler
}

// OnConnection регистрирует функцию, которая будет вызвана при новом соединении
func (s *WSServer) OnConnection(handler func(conn *SafeWriter)) {
	s.connectionHandlers = append(s.connectionHandlers, handler)
}

// SetPingInterval устанавливает интервал отправки пингов. 0 выключает пинги.
func (s *WSServer) SetPingInterval(interval time.Duration) {
	s.pingInterval = interval
}

// SetEventRecorder задает получателя событий о командах
func (s *WSServer) SetEventRecorder(events EventRecorder) {
	s.events = events
}

// RegisterRoutes подключает обработчик к HTTP маршрутизатору
func (s *WSServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.HandleWS)
}

// HandleWS обрабатывает входящие WebSocket соединения
func (s *WSServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("[WSServer] Ошибка upgrade: %v", err)
		return
	}

	safeConn := NewSafeWriter(conn)
	done := make(chan struct{})
	defer func() {
		close(done)
		s.removeClient(safeConn)
		safeConn.Close()
	}()

	s.logger.Printf("[WSServer] Новое соединение от %s", conn.RemoteAddr())

	// Отправляем приветственное сообщение и описание сцены
	if err := s.send(safeConn, NewInfoMessage("Connected to orrery server")); err != nil {
		s.logger.Printf("[WSServer] Ошибка отправки приветствия: %v", err)
		return
	}
	if scene := s.holder.Scene(); scene != nil {
		if err := s.send(safeConn, NewSceneMessage(scene, s.controls)); err != nil {
			s.logger.Printf("[WSServer] Ошибка отправки сцены: %v", err)
			return
		}
	} else if err := s.send(safeConn, NewInfoMessage("Scene is not loaded yet")); err != nil {
		return
	}

	s.addClient(safeConn)

	if s.pingInterval > 0 {
		go s.startPing(safeConn, done)
	}

	for _, handler := range s.connectionHandlers {
		handler(safeConn)
	}

	// Основной цикл обработки сообщений
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Printf("[WSServer] Ошибка WebSocket: %v", err)
			}
			break
		}

		message, err := ParseMessage(data)
		if err != nil {
			s.logger.Printf("[WSServer] Ошибка разбора сообщения: %v", err)
			continue
		}

		messageType, _ := GetMessageType(data)
		handler, ok := s.handlers[messageType]
		if !ok {
			s.logger.Printf("[WSServer] Нет обработчика для сообщения %s", messageType)
			continue
		}
		if err := handler(safeConn, message); err != nil {
			s.logger.Printf("[WSServer] Ошибка обработки %s: %v", messageType, err)
		}
	}

	s.logger.Printf("[WSServer] Соединение закрыто: %s", conn.RemoteAddr())
}

// handleCmd выполняет команду управления и подтверждает ее
func (s *WSServer) handleCmd(conn *SafeWriter, message interface{}) error {
	cmdMsg, ok := message.(*CommandMessage)
	if !ok {
		return ErrInvalidMessage
	}

	var err error
	switch {
	case s.controls == nil:
		err = ErrCommandsDisabled
	case cmdMsg.Cmd == CmdSelect:
		err = s.controls.Select(cmdMsg.Body)
	default:
		hold := DefaultHoldDuration
		if cmdMsg.HoldMs > 0 {
			hold = time.Duration(cmdMsg.HoldMs) * time.Millisecond
		}
		err = s.controls.Apply(game.Command(cmdMsg.Cmd), hold)
	}

	if err == nil && s.events != nil {
		s.events.LogEvent("cmd_" + cmdMsg.Cmd)
	}

	ack := NewAckMessage(cmdMsg.Cmd, cmdMsg.ClientTime, err)
	if s.controls != nil {
		st := s.controls.State()
		ack.State = &st
	}
	return s.send(conn, ack)
}

// handlePing обрабатывает ping-сообщения
func (s *WSServer) handlePing(conn *SafeWriter, message interface{}) error {
	pingMsg, ok := message.(*PingMessage)
	if !ok {
		return ErrInvalidMessage
	}
	return s.send(conn, NewPongMessage(pingMsg.ClientTime))
}

// handlePong принимает ответ на серверный пинг
func (s *WSServer) handlePong(conn *SafeWriter, message interface{}) error {
	if _, ok := message.(*PongMessage); !ok {
		return ErrInvalidMessage
	}
	return nil
}

// startPing запускает периодическую отправку пингов для проверки соединения
func (s *WSServer) startPing(conn *SafeWriter, done <-chan struct{}) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.send(conn, NewPingMessage()); err != nil {
				s.logger.Printf("[WSServer] Ошибка отправки пинга: %v", err)
				return
			}
		}
	}
}

// BroadcastFrame рассылает кадр всем клиентам. Кадр кодируется один раз.
func (s *WSServer) BroadcastFrame(frame game.Frame) error {
	return s.broadcast(NewBatchUpdateMessage(frame))
}

// BroadcastScene рассылает описание текущей сцены, например после
// перезагрузки каталога
func (s *WSServer) BroadcastScene() error {
	scene := s.holder.Scene()
	if scene == nil {
		return game.ErrNoScene
	}
	return s.broadcast(NewSceneMessage(scene, s.controls))
}

func (s *WSServer) broadcast(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	s.clientsMu.RLock()
	clients := make([]*SafeWriter, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()

	for _, c := range clients {
		if err := s.deliver(c, data); err != nil {
			s.logger.Printf("[WSServer] Клиент %s отключен: %v", c.RemoteAddr(), err)
			s.removeClient(c)
			c.Close()
		}
	}
	return nil
}

func (s *WSServer) send(conn *SafeWriter, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return s.deliver(conn, data)
}

func (s *WSServer) addClient(conn *SafeWriter) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[conn] = true
}

func (s *WSServer) removeClient(conn *SafeWriter) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, conn)
}

// ClientCount возвращает количество подключенных клиентов
func (s *WSServer) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Close отключает всех клиентов и останавливает фоновые горутины
func (s *WSServer) Close() {
	s.cancel()

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for c := range s.clients {
		c.Close()
		delete(s.clients, c)
	}
}
