package ws

// Типы событий ленты
const (
	TypeHello = "hello" // первое сообщение после подключения
	TypeAudit = "audit" // запись журнала действий бота
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type AuditPayload struct {
	Text   string `json:"text"`
	TSUnix int64  `json:"ts_unix"`
}

type HelloPayload struct {
	Subscribers int `json:"subscribers"`
}
