package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Event string          `json:"event"`
	Room  string          `json:"room,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// actionRequest keeps Index a pointer so a missing index is distinguishable from cell 0.
type actionRequest struct {
	Index  *int   `json:"index"`
	Symbol string `json:"symbol"`
}

func decodeAction(data json.RawMessage) (entity.ActionPayload, error) {
	var req actionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return entity.ActionPayload{}, fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err)
	}

	if req.Index == nil {
		return entity.ActionPayload{}, fmt.Errorf("%w: index is required", apperror.ErrInvalidPayload)
	}

	return entity.ActionPayload{Index: *req.Index, Symbol: req.Symbol}, nil
}

func decodeSetSymbol(data json.RawMessage) (entity.SetSymbolPayload, error) {
	var payload entity.SetSymbolPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return entity.SetSymbolPayload{}, fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err)
	}

	return payload, nil
}
