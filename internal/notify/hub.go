package notify

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sujalbistaa/v4ult/internal/ws"
)

var errHubFull = errors.New("admin feed queue full")

// Hub pushes events to the admin live feed.
type Hub struct {
	hub *ws.Hub
}

func NewHub(h *ws.Hub) *Hub {
	return &Hub{hub: h}
}

func (h *Hub) Notify(_ context.Context, ev Event) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if !h.hub.Publish(msg) {
		return errHubFull
	}
	return nil
}
