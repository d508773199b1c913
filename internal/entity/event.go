package entity

// Inbound events.
const (
	EventSetSymbol = "set_symbol"
	EventReset     = "reset"
	EventAction    = "action"
)

// Outbound events.
const (
	EventUpdate     = "update"
	EventBusySymbol = "busy_symbol"
	EventGameOver   = "game_over"
)

// Event is a state change broadcast to every client of a room.
type Event struct {
	Name string `json:"event"`
	Room string `json:"room"`
	Data any    `json:"data,omitempty"`
}

type SetSymbolPayload struct {
	Symbol     string `json:"symbol"`
	Username   string `json:"username"`
	Avatar     string `json:"avatar"`
	AvatarType string `json:"avatarType"`
	AvatarData string `json:"avatarData"`
}

type ActionPayload struct {
	Index  int    `json:"index"`
	Symbol string `json:"symbol"`
}

type UpdatePayload struct {
	Index  int    `json:"index"`
	Symbol Symbol `json:"symbol"`
}

// GameOverPayload - Symbol is the winner or "draw", Player is nil for a draw or an unregistered winner.
type GameOverPayload struct {
	Symbol Result  `json:"symbol"`
	Player *Player `json:"player"`
}

func NewUpdateEvent(room string, cell int, symbol Symbol) Event {
	return Event{Name: EventUpdate, Room: room, Data: UpdatePayload{Index: cell, Symbol: symbol}}
}

func NewBusySymbolEvent(room string, symbol Symbol) Event {
	return Event{Name: EventBusySymbol, Room: room, Data: symbol}
}

func NewResetEvent(room string) Event {
	return Event{Name: EventReset, Room: room}
}

func NewGameOverEvent(room string, result Result, player *Player) Event {
	return Event{Name: EventGameOver, Room: room, Data: GameOverPayload{Symbol: result, Player: player}}
}
