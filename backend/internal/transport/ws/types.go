package ws

import (
	"orrery/backend/internal/game"
	"orrery/backend/internal/world"
)

// Константы для WebSocket сообщений
const (
	MessageTypeInfo        = "info"         // Информационное сообщение
	MessageTypeScene       = "scene"        // Описание сцены целиком
	MessageTypeBatchUpdate = "batch_update" // Матрицы всех тел за тик
	MessageTypeCommand     = "cmd"          // Команда от клиента
	MessageTypeAck         = "cmd_ack"      // Подтверждение команды
	MessageTypePing        = "ping"         // Пинг для измерения задержки
	MessageTypePong        = "pong"         // Ответ на пинг
)

// Статусы подтверждения команды
const (
	AckStatusOK    = "ok"
	AckStatusError = "error"
)

// CmdSelect выбирает активное тело по имени из поля body
const CmdSelect = "select"

// InfoMessage представляет информационное сообщение от сервера
type InfoMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// BodyDescriptor - неизменяемые данные тела, нужные клиенту один раз
type BodyDescriptor struct {
	Name        string  `json:"name"`
	Parent      string  `json:"parent,omitempty"`
	Texture     string  `json:"texture"`
	Lit         bool    `json:"lit"`
	IsLit       float32 `json:"is_lit"`
	Reflectance float32 `json:"reflectance"`
	Diameter    float32 `json:"diameter"`
	OrbitRadius float32 `json:"orbit_radius"`
}

// SceneMessage отправляется при подключении и после перезагрузки каталога
type SceneMessage struct {
	Type       string             `json:"type"`
	ServerTime int64              `json:"server_time"`
	Bodies     []BodyDescriptor   `json:"bodies"`
	Orbits     []world.OrbitState `json:"orbits"`
	Controls   *game.ControlState `json:"controls,omitempty"`
}

// BatchUpdateMessage - кадр сцены
type BatchUpdateMessage struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"server_time"`
	game.Frame
}

// CommandMessage представляет команду от клиента
type CommandMessage struct {
	Type       string `json:"type"`
	Cmd        string `json:"cmd"`
	Body       string `json:"body,omitempty"`    // для select
	HoldMs     int64  `json:"hold_ms,omitempty"` // длительность удержания клавиши
	ClientTime int64  `json:"client_time,omitempty"`
}

// AckMessage представляет подтверждение команды сервером
type AckMessage struct {
	Type       string             `json:"type"`
	Cmd        string             `json:"cmd"`
	Status     string             `json:"status"`
	Error      string             `json:"error,omitempty"`
	ClientTime int64              `json:"client_time"`
	ServerTime int64              `json:"server_time"`
	State      *game.ControlState `json:"state,omitempty"`
}

// PingMessage отправляется в обе стороны
type PingMessage struct {
	Type       string `json:"type"`
	ClientTime int64  `json:"client_time,omitempty"`
	ServerTime int64  `json:"server_time,omitempty"`
}

// PongMessage представляет ответ на пинг
type PongMessage struct {
	Type       string `json:"type"`
	ClientTime int64  `json:"client_time"`
	ServerTime int64  `json:"server_time"`
}
