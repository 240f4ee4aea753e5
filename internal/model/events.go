package model

import (
	"encoding/json"
	"time"
)

// EventType identifies the type of event on the wire
type EventType string

const (
	// Client to server
	EventCreateLobby  EventType = "createLobby"
	EventJoinLobby    EventType = "joinLobby"
	EventLeaveLobby   EventType = "leaveLobby"
	EventToggleReady  EventType = "toggleReady"
	EventStartGame    EventType = "startGame"
	EventEndGame      EventType = "endGame"
	EventPlayerUpdate EventType = "playerUpdate"
	EventPlayerShoot  EventType = "playerShoot"
	EventPlayerHit    EventType = "playerHit"
	EventEnemyKilled  EventType = "enemyKilled"
	EventChatMessage  EventType = "chatMessage"

	// Server to client
	EventConnected       EventType = "connected"
	EventLobbyCreated    EventType = "lobbyCreated"
	EventLobbyJoined     EventType = "lobbyJoined"
	EventLobbyError      EventType = "lobbyError"
	EventError           EventType = "error"
	EventPlayerJoined    EventType = "playerJoined"
	EventPlayerLeft      EventType = "playerLeft"
	EventNewHost         EventType = "newHost"
	EventPlayerReady     EventType = "playerReady"
	EventAllReady        EventType = "allReady"
	EventGameStarting    EventType = "gameStarting"
	EventGameOver        EventType = "gameOver"
	EventPlayerMoved     EventType = "playerMoved"
	EventPlayerShot      EventType = "playerShot"
	EventPlayerDamaged   EventType = "playerDamaged"
	EventPlayerDied      EventType = "playerDied"
	EventPlayerRespawned EventType = "playerRespawned"
	EventScoreUpdate     EventType = "scoreUpdate"
)

// Message is the envelope for every server to client event
type Message struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// NewMessage builds a Message
func NewMessage(t EventType, payload any) Message {
	return Message{Type: t, Payload: payload}
}

// ConnectedPayload tells a client its own identity
type ConnectedPayload struct {
	ID PlayerID `json:"id"`
}

// LobbyCreatedPayload is sent to the creator of a lobby
type LobbyCreatedPayload struct {
	Code    LobbyCode `json:"code"`
	IsHost  bool      `json:"isHost"`
	Players []Player  `json:"players"`
}

// LobbyJoinedPayload is sent to a player who joined a lobby. Players is the
// full roster at the moment of joining, including the joiner.
type LobbyJoinedPayload struct {
	Code    LobbyCode `json:"code"`
	Players []Player  `json:"players"`
	Host    PlayerID  `json:"host"`
	Phase   Phase     `json:"phase"`
	IsHost  bool      `json:"isHost"`
}

// ErrorPayload reports a failed request to the originating client only
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PlayerLeftPayload announces a departure
type PlayerLeftPayload struct {
	PlayerID PlayerID `json:"playerId"`
}

// NewHostPayload announces a host transfer
type NewHostPayload struct {
	HostID PlayerID `json:"hostId"`
}

// PlayerReadyPayload announces a ready toggle
type PlayerReadyPayload struct {
	PlayerID PlayerID `json:"playerId"`
	Ready    bool     `json:"ready"`
}

// AllReadyPayload signals that the host may start
type AllReadyPayload struct {
	Ready bool `json:"ready"`
}

// RosterPayload carries a full roster (gameStarting, gameOver)
type RosterPayload struct {
	Players []Player `json:"players"`
}

// PlayerMovedPayload relays a transform update
type PlayerMovedPayload struct {
	ID PlayerID `json:"id"`
	Transform
}

// PlayerShotPayload relays client-computed bullets verbatim
type PlayerShotPayload struct {
	PlayerID PlayerID          `json:"playerId"`
	Bullets  []json.RawMessage `json:"bullets"`
}

// PlayerDamagedPayload announces an authoritative health change
type PlayerDamagedPayload struct {
	TargetID  PlayerID `json:"targetId"`
	Damage    int      `json:"damage"`
	NewHealth int      `json:"newHealth"`
	ShooterID PlayerID `json:"shooterId"`
}

// PlayerDiedPayload announces a death
type PlayerDiedPayload struct {
	PlayerID PlayerID `json:"playerId"`
	KillerID PlayerID `json:"killerId"`
}

// PlayerRespawnedPayload announces a respawn at a new position
type PlayerRespawnedPayload struct {
	PlayerID PlayerID `json:"playerId"`
	Position Vector3  `json:"position"`
}

// ScoreUpdatePayload announces a score change
type ScoreUpdatePayload struct {
	PlayerID PlayerID `json:"playerId"`
	Score    int      `json:"score"`
}

// ChatPayload relays a chat line
type ChatPayload struct {
	PlayerID   PlayerID `json:"playerId"`
	PlayerName string   `json:"playerName"`
	Message    string   `json:"message"`
}

// ActivityType identifies a lobby lifecycle event published to the feed
type ActivityType string

const (
	ActivityLobbyCreated ActivityType = "lobby_created"
	ActivityLobbyClosed  ActivityType = "lobby_closed"
	ActivityLobbyReaped  ActivityType = "lobby_reaped"
	ActivityGameStarted  ActivityType = "game_started"
	ActivityGameEnded    ActivityType = "game_ended"
)

// Activity is a lobby lifecycle event for external observers
type Activity struct {
	Type        ActivityType `json:"type"`
	LobbyCode   LobbyCode    `json:"lobbyCode"`
	PlayerID    PlayerID     `json:"playerId,omitempty"`
	MemberCount int          `json:"memberCount"`
	Timestamp   time.Time    `json:"timestamp"`
}
