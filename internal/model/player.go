package model

// PlayerID uniquely identifies a player. It is the identity of the player's
// connection, so a reconnect is a new player.
type PlayerID string

// Default values applied when a client omits profile fields
const (
	DefaultPlayerName = "Pilot"
	DefaultShipType   = "starter"
	DefaultColor      = 0xcccccc

	MaxHealth = 100
)

// Vector3 is a point or direction in world space
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Transform is the client-owned part of a player's state
type Transform struct {
	Position Vector3 `json:"position"`
	Rotation Vector3 `json:"rotation"`
	Velocity Vector3 `json:"velocity"`
	Speed    float64 `json:"speed"`
}

// PlayerProfile is what a client supplies when creating or joining a lobby
type PlayerProfile struct {
	Name     string
	ShipType string
	Color    int
}

// Player is a connection's game-facing state while it is in a lobby
type Player struct {
	ID       PlayerID `json:"id"`
	Name     string   `json:"name"`
	ShipType string   `json:"ship"`
	Color    int      `json:"color"`
	Ready    bool     `json:"ready"`
	Score    int      `json:"score"`
	Health   int      `json:"health"`
	Transform
}

// NewPlayer builds a fresh player from a profile, filling in defaults
func NewPlayer(id PlayerID, profile PlayerProfile) *Player {
	p := &Player{
		ID:       id,
		Name:     profile.Name,
		ShipType: profile.ShipType,
		Color:    profile.Color,
		Health:   MaxHealth,
	}
	if p.Name == "" {
		p.Name = DefaultPlayerName
	}
	if p.ShipType == "" {
		p.ShipType = DefaultShipType
	}
	if p.Color == 0 {
		p.Color = DefaultColor
	}
	return p
}

// Snapshot returns a copy that is safe to hand to the transport layer
func (p *Player) Snapshot() Player {
	return *p
}
