package response

import (
	"time"

	"github.com/mcoot/spacetime-relay/internal/model"
	"github.com/mcoot/spacetime-relay/internal/realtime"
)

// Lobby represents a lobby in API responses
type Lobby struct {
	Code        string    `json:"code"`
	Host        string    `json:"host"`
	Phase       string    `json:"phase"`
	MemberCount int       `json:"memberCount"`
	MaxPlayers  int       `json:"maxPlayers"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LobbyFromModel converts a model.LobbySummary
func LobbyFromModel(s model.LobbySummary) Lobby {
	return Lobby{
		Code:        string(s.Code),
		Host:        string(s.Host),
		Phase:       string(s.Phase),
		MemberCount: s.MemberCount,
		MaxPlayers:  s.MaxPlayers,
		CreatedAt:   s.CreatedAt,
	}
}

// LobbyList is the response for listing lobbies
type LobbyList struct {
	Lobbies []Lobby `json:"lobbies"`
}

// LobbyListFromModel converts lobby summaries
func LobbyListFromModel(summaries []model.LobbySummary) LobbyList {
	lobbies := make([]Lobby, len(summaries))
	for i, s := range summaries {
		lobbies[i] = LobbyFromModel(s)
	}
	return LobbyList{Lobbies: lobbies}
}

// Stats is the response for the stats endpoint
type Stats struct {
	Connections int `json:"connections"`
	Lobbies     int `json:"lobbies"`
	realtime.MetricsSnapshot
}

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
}
