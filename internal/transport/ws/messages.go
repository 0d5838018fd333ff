package ws

import (
	"encoding/json"
	"fmt"

	"github.com/san-kum/rigidlab/internal/events"
	"github.com/san-kum/rigidlab/internal/world"
)

const (
	MessageTypeInfo  = "info"
	MessageTypeFrame = "frame"
	MessageTypeError = "error"
)

// FrameMessage is sent to every client after each tick.
type FrameMessage struct {
	Type string `json:"type"`
	world.Frame
}

type InfoMessage struct {
	Type     string  `json:"type"`
	Scene    string  `json:"scene"`
	Timestep float64 `json:"timestep"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// InputMessage is what clients send: pointer moves, clicks and viewport
// resizes in client pixel coordinates.
type InputMessage struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// ParseInput decodes a client message into a bus event.
func ParseInput(data []byte) (events.Event, error) {
	var m InputMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return events.Event{}, fmt.Errorf("decode input: %w", err)
	}
	kind, err := events.ParseKind(m.Type)
	if err != nil {
		return events.Event{}, err
	}
	if kind == events.Resize && (m.X <= 0 || m.Y <= 0) {
		return events.Event{}, fmt.Errorf("resize needs a positive size, got %gx%g", m.X, m.Y)
	}
	return events.Event{Kind: kind, X: m.X, Y: m.Y}, nil
}
