// Package request holds the shapes of client to server socket events.
package request

import (
	"encoding/json"

	"github.com/mcoot/spacetime-relay/internal/model"
)

// Envelope is a raw inbound event. Payload is decoded once the type is known.
type Envelope struct {
	Type    model.EventType `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decode unmarshals the payload into v. A missing payload leaves v untouched.
func (e Envelope) Decode(v any) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}

// PlayerData is the profile a client supplies when entering a lobby
type PlayerData struct {
	Name  string `json:"name"`
	Ship  string `json:"ship"`
	Color int    `json:"color"`
}

// Profile converts PlayerData to a model.PlayerProfile
func (p PlayerData) Profile() model.PlayerProfile {
	return model.PlayerProfile{Name: p.Name, ShipType: p.Ship, Color: p.Color}
}

// CreateLobbyRequest is the payload of createLobby
type CreateLobbyRequest = PlayerData

// JoinLobbyRequest is the payload of joinLobby
type JoinLobbyRequest struct {
	Code       string     `json:"code"`
	PlayerData PlayerData `json:"playerData"`
}

// PlayerUpdateRequest is the payload of playerUpdate
type PlayerUpdateRequest = model.Transform

// PlayerShootRequest is the payload of playerShoot
type PlayerShootRequest struct {
	Bullets []json.RawMessage `json:"bullets"`
}

// PlayerHitRequest is the payload of playerHit
type PlayerHitRequest struct {
	TargetID  model.PlayerID `json:"targetId"`
	ShooterID model.PlayerID `json:"shooterId"`
	Damage    int            `json:"damage"`
}

// EnemyKilledRequest is the payload of enemyKilled
type EnemyKilledRequest struct {
	Score int `json:"score"`
}

// ChatMessageRequest is the payload of chatMessage
type ChatMessageRequest struct {
	Message string `json:"message"`
}
