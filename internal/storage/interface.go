package storage

import (
	"context"
	"time"

	"github.com/mcoot/spacetime-relay/internal/model"
)

// LobbyStore owns every live lobby and the player to lobby reverse index.
// Implementations must be safe for concurrent use.
type LobbyStore interface {
	// Lobby lifecycle
	CreateLobby(ctx context.Context, hostID model.PlayerID, hostName string) (model.LobbyCode, error)
	GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error)
	DeleteLobby(ctx context.Context, code model.LobbyCode) error
	LobbyExists(ctx context.Context, code model.LobbyCode) (bool, error)
	ListLobbies(ctx context.Context) ([]model.LobbySummary, error)
	GetSummary(ctx context.Context, code model.LobbyCode) (model.LobbySummary, error)
	SweepExpired(ctx context.Context, now time.Time, retention time.Duration) ([]model.LobbyCode, error)

	// Membership
	AddMember(ctx context.Context, code model.LobbyCode, player *model.Player) error
	RemoveMember(ctx context.Context, playerID model.PlayerID) (*model.Lobby, error)
	LobbyForPlayer(ctx context.Context, playerID model.PlayerID) (*model.Lobby, error)

	// Lobby state
	SetHost(ctx context.Context, code model.LobbyCode, hostID model.PlayerID) error
	SetPhase(ctx context.Context, code model.LobbyCode, phase model.Phase) error
}
