package websocket

import (
	"encoding/json"

	"github.com/dom/timetrack/internal/service"
)

type MessageType string

// Client to Server
const (
	MessageTypeNewTimer  MessageType = "new_timer"
	MessageTypeStopTimer MessageType = "stop_timer"
)

// InboundMessage is a flat command frame. UserID is accepted for
// compatibility with older clients and ignored; the owner is always the
// connection's user.
type InboundMessage struct {
	Type        MessageType `json:"type"`
	Description string      `json:"description,omitempty"`
	UserID      string      `json:"userId,omitempty"`
	ID          string      `json:"id,omitempty"`
}

// TimersMessage is the full-state frame pushed every tick.
type TimersMessage struct {
	Timers []service.TimerView `json:"timers"`
}

func encodeTimers(views []service.TimerView) ([]byte, error) {
	if views == nil {
		views = []service.TimerView{}
	}
	return json.Marshal(TimersMessage{Timers: views})
}
