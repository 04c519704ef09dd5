package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"orrery/backend/internal/game"
	"orrery/backend/internal/world"
)

var (
	ErrInvalidMessage     = errors.New("invalid message")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrCommandsDisabled   = errors.New("commands are disabled")
)

// GetCurrentServerTime возвращает текущее серверное время в миллисекундах
func GetCurrentServerTime() int64 {
	return time.Now().UnixMilli()
}

// ParseMessage разбирает входящее сообщение в соответствующий тип
func ParseMessage(data []byte) (interface{}, error) {
	msgType, err := GetMessageType(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing message: %w", err)
	}

	var msg interface{}
	switch msgType {
	case MessageTypeCommand:
		msg = &CommandMessage{}
	case MessageTypePing:
		msg = &PingMessage{}
	case MessageTypePong:
		msg = &PongMessage{}
	case MessageTypeAck:
		msg = &AckMessage{}
	case MessageTypeInfo:
		msg = &InfoMessage{}
	case MessageTypeScene:
		msg = &SceneMessage{}
	case MessageTypeBatchUpdate:
		msg = &BatchUpdateMessage{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, msgType)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("error parsing %s message: %w", msgType, err)
	}
	return msg, nil
}

// GetMessageType возвращает тип сообщения на основе входных данных
func GetMessageType(data []byte) (string, error) {
	var baseMessage struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(data, &baseMessage); err != nil {
		return "", err
	}

	return baseMessage.Type, nil
}

// NewInfoMessage создает новое информационное сообщение
func NewInfoMessage(message string) *InfoMessage {
	return &InfoMessage{Type: MessageTypeInfo, Message: message}
}

// NewSceneMessage описывает сцену: статические данные тел и точки орбит
func NewSceneMessage(scene *world.Scene, controls *game.Controls) *SceneMessage {
	msg := &SceneMessage{
		Type:       MessageTypeScene,
		ServerTime: GetCurrentServerTime(),
		Orbits:     scene.OrbitSnapshot(true),
	}
	for _, b := range scene.Bodies() {
		rec := b.Record()
		msg.Bodies = append(msg.Bodies, BodyDescriptor{
			Name:        rec.Name,
			Parent:      rec.Parent,
			Texture:     rec.Texture,
			Lit:         rec.Lit(),
			IsLit:       rec.IsLit,
			Reflectance: rec.Reflectance,
			Diameter:    b.Diameter(),
			OrbitRadius: b.OrbitRadius(),
		})
	}
	if controls != nil {
		st := controls.State()
		msg.Controls = &st
	}
	return msg
}

// NewBatchUpdateMessage оборачивает кадр в сообщение
func NewBatchUpdateMessage(frame game.Frame) *BatchUpdateMessage {
	return &BatchUpdateMessage{
		Type:       MessageTypeBatchUpdate,
		ServerTime: GetCurrentServerTime(),
		Frame:      frame,
	}
}

// NewAckMessage создает подтверждение команды. err == nil означает успех.
func NewAckMessage(cmd string, clientTime int64, err error) *AckMessage {
	ack := &AckMessage{
		Type:       MessageTypeAck,
		Cmd:        cmd,
		Status:     AckStatusOK,
		ClientTime: clientTime,
		ServerTime: GetCurrentServerTime(),
	}
	if err != nil {
		ack.Status = AckStatusError
		ack.Error = err.Error()
	}
	return ack
}

// NewPingMessage создает пинг от сервера
func NewPingMessage() *PingMessage {
	return &PingMessage{Type: MessageTypePing, ServerTime: GetCurrentServerTime()}
}

// NewPongMessage создает ответ на пинг клиента
func NewPongMessage(clientTime int64) *PongMessage {
	return &PongMessage{
		Type:       MessageTypePong,
		ClientTime: clientTime,
		ServerTime: GetCurrentServerTime(),
	}
}
