package server

import (
	"github.com/brensch/greedysnek/engine"
	"github.com/brensch/greedysnek/game"
)

type InfoResponse struct {
	APIVersion string `json:"apiversion"`
	Author     string `json:"author"`
	Version    string `json:"version"`
	Sessions   int    `json:"sessions"`
}

type StartRequest struct {
	GameID string `json:"game_id"`
}

type StartResponse struct {
	GameID string `json:"game_id"`
}

// MoveRequest is one round for the session named by GameID. The round itself
// uses the host's flat wire encoding.
type MoveRequest struct {
	GameID string `json:"game_id"`
	game.Wire
}

type MoveResponse struct {
	GameID    string `json:"game_id,omitempty"`
	Move      int    `json:"move"`
	Direction string `json:"direction"`
	Round     int    `json:"round"`
	Dead      bool   `json:"dead,omitempty"`
	// Decision is filled when the caller asks for an explanation.
	Decision *engine.Decision `json:"decision,omitempty"`
}

type EndRequest struct {
	GameID string `json:"game_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
