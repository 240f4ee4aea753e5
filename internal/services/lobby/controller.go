package lobby

import (
	"context"
	"log/slog"
	"sort"

	"github.com/mcoot/spacetime-relay/internal/dependencies/clock"
	"github.com/mcoot/spacetime-relay/internal/feed"
	"github.com/mcoot/spacetime-relay/internal/model"
	"github.com/mcoot/spacetime-relay/internal/services/fanout"
	"github.com/mcoot/spacetime-relay/internal/storage"
)

// Departure describes the outcome of a player leaving a lobby
type Departure struct {
	Code         model.LobbyCode
	NewHost      model.PlayerID // empty unless the host changed
	LobbyDeleted bool
}

// Controller manages the lobby state machine and member operations. Its
// methods expect to be called from a single event sequence.
type Controller struct {
	storage  storage.LobbyStore
	notifier fanout.Notifier
	feed     feed.Publisher
	clock    clock.Clock
	logger   *slog.Logger
}

// NewController creates a new lobby Controller
func NewController(
	store storage.LobbyStore,
	notifier fanout.Notifier,
	publisher feed.Publisher,
	clk clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:  store,
		notifier: notifier,
		feed:     publisher,
		clock:    clk,
		logger:   logger.With(slog.String("component", "lobby-controller")),
	}
}

// CreateLobby creates a new lobby with the given player as host
func (c *Controller) CreateLobby(ctx context.Context, playerID model.PlayerID, profile model.PlayerProfile) (*model.Lobby, error) {
	if _, err := c.storage.LobbyForPlayer(ctx, playerID); err == nil {
		return nil, model.ErrAlreadyInLobby
	}

	host := model.NewPlayer(playerID, profile)
	code, err := c.storage.CreateLobby(ctx, playerID, host.Name)
	if err != nil {
		return nil, err
	}
	if err := c.storage.AddMember(ctx, code, host); err != nil {
		_ = c.storage.DeleteLobby(ctx, code)
		return nil, err
	}

	lobby, err := c.storage.GetLobby(ctx, code)
	if err != nil {
		return nil, err
	}

	c.notifier.Send(playerID, model.NewMessage(model.EventLobbyCreated, model.LobbyCreatedPayload{
		Code:    code,
		IsHost:  true,
		Players: lobby.Roster(),
	}))
	c.publish(ctx, model.ActivityLobbyCreated, lobby, playerID)
	return lobby, nil
}

// JoinLobby adds a player to the lobby identified by rawCode. The joiner
// receives the full roster; existing members are told about the joiner.
func (c *Controller) JoinLobby(ctx context.Context, playerID model.PlayerID, rawCode string, profile model.PlayerProfile) (*model.Lobby, error) {
	code, err := model.ParseLobbyCode(rawCode)
	if err != nil {
		return nil, err
	}

	player := model.NewPlayer(playerID, profile)
	if err := c.storage.AddMember(ctx, code, player); err != nil {
		return nil, err
	}

	lobby, err := c.storage.GetLobby(ctx, code)
	if err != nil {
		return nil, err
	}

	c.notifier.Send(playerID, model.NewMessage(model.EventLobbyJoined, model.LobbyJoinedPayload{
		Code:    code,
		Players: lobby.Roster(),
		Host:    lobby.Host,
		Phase:   lobby.Phase,
		IsHost:  lobby.Host == playerID,
	}))
	fanout.ToOthers(c.notifier, lobby, playerID, model.NewMessage(model.EventPlayerJoined, player.Snapshot()))

	c.logger.Info("player joined lobby",
		slog.String("lobby", string(code)),
		slog.String("player_id", string(playerID)),
		slog.Int("members", len(lobby.Members)))
	return lobby, nil
}

// ToggleReady flips the caller's ready flag. Once every member of a lobby
// that has not started is ready, allReady is broadcast.
func (c *Controller) ToggleReady(ctx context.Context, playerID model.PlayerID) error {
	lobby, err := c.storage.LobbyForPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	player := lobby.GetMember(playerID)
	if player == nil {
		return model.ErrPlayerNotFound
	}

	player.Ready = !player.Ready
	fanout.ToAll(c.notifier, lobby, model.NewMessage(model.EventPlayerReady, model.PlayerReadyPayload{
		PlayerID: playerID,
		Ready:    player.Ready,
	}))

	if lobby.Phase == model.PhaseLobby && lobby.AllReady() {
		fanout.ToAll(c.notifier, lobby, model.NewMessage(model.EventAllReady, model.AllReadyPayload{Ready: true}))
	}
	return nil
}

// StartGame moves the caller's lobby into play. Only the host may start,
// and only from the lobby phase.
func (c *Controller) StartGame(ctx context.Context, playerID model.PlayerID) error {
	lobby, err := c.storage.LobbyForPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if lobby.Host != playerID {
		return model.ErrNotHost
	}
	if lobby.Phase != model.PhaseLobby {
		return model.ErrGameInProgress
	}

	if err := c.storage.SetPhase(ctx, lobby.Code, model.PhasePlaying); err != nil {
		return err
	}

	fanout.ToAll(c.notifier, lobby, model.NewMessage(model.EventGameStarting, model.RosterPayload{
		Players: lobby.Roster(),
	}))
	c.publish(ctx, model.ActivityGameStarted, lobby, playerID)
	return nil
}

// EndGame finishes a running match and broadcasts the final standings
func (c *Controller) EndGame(ctx context.Context, playerID model.PlayerID) error {
	lobby, err := c.storage.LobbyForPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if lobby.Host != playerID {
		return model.ErrNotHost
	}
	if lobby.Phase != model.PhasePlaying {
		return model.ErrNotPlaying
	}

	if err := c.storage.SetPhase(ctx, lobby.Code, model.PhaseGameOver); err != nil {
		return err
	}

	fanout.ToAll(c.notifier, lobby, model.NewMessage(model.EventGameOver, model.RosterPayload{
		Players: Standings(lobby),
	}))
	c.publish(ctx, model.ActivityGameEnded, lobby, playerID)
	return nil
}

// Standings returns the roster ordered by score, highest first. Ties keep
// join order.
func Standings(lobby *model.Lobby) []model.Player {
	roster := lobby.Roster()
	sort.SliceStable(roster, func(i, j int) bool {
		return roster[i].Score > roster[j].Score
	})
	return roster
}

// LeaveLobby removes the player from its lobby. It is used for both an
// explicit leave and a disconnect. The host passes to the earliest-joined
// remaining member; an emptied lobby is deleted.
func (c *Controller) LeaveLobby(ctx context.Context, playerID model.PlayerID) (*Departure, error) {
	lobby, err := c.storage.RemoveMember(ctx, playerID)
	if err != nil {
		return nil, err
	}

	departure := &Departure{Code: lobby.Code}

	if lobby.IsEmpty() {
		if err := c.storage.DeleteLobby(ctx, lobby.Code); err != nil {
			return nil, err
		}
		departure.LobbyDeleted = true
		c.logger.Info("lobby closed", slog.String("lobby", string(lobby.Code)))
		c.publish(ctx, model.ActivityLobbyClosed, lobby, playerID)
		return departure, nil
	}

	fanout.ToAll(c.notifier, lobby, model.NewMessage(model.EventPlayerLeft, model.PlayerLeftPayload{
		PlayerID: playerID,
	}))

	if lobby.Host == playerID {
		successor := lobby.Members[0].ID
		if err := c.storage.SetHost(ctx, lobby.Code, successor); err != nil {
			return nil, err
		}
		departure.NewHost = successor
		fanout.ToAll(c.notifier, lobby, model.NewMessage(model.EventNewHost, model.NewHostPayload{
			HostID: successor,
		}))
		c.logger.Info("host transferred",
			slog.String("lobby", string(lobby.Code)),
			slog.String("from", string(playerID)),
			slog.String("to", string(successor)))
	}

	return departure, nil
}

// GetLobby retrieves a lobby by code
func (c *Controller) GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error) {
	return c.storage.GetLobby(ctx, code)
}

func (c *Controller) publish(ctx context.Context, t model.ActivityType, lobby *model.Lobby, playerID model.PlayerID) {
	c.feed.Publish(ctx, model.Activity{
		Type:        t,
		LobbyCode:   lobby.Code,
		PlayerID:    playerID,
		MemberCount: len(lobby.Members),
		Timestamp:   c.clock.Now(),
	})
}

// Interface for dependency injection
type ControllerInterface interface {
	CreateLobby(ctx context.Context, playerID model.PlayerID, profile model.PlayerProfile) (*model.Lobby, error)
	JoinLobby(ctx context.Context, playerID model.PlayerID, rawCode string, profile model.PlayerProfile) (*model.Lobby, error)
	ToggleReady(ctx context.Context, playerID model.PlayerID) error
	StartGame(ctx context.Context, playerID model.PlayerID) error
	EndGame(ctx context.Context, playerID model.PlayerID) error
	LeaveLobby(ctx context.Context, playerID model.PlayerID) (*Departure, error)
	GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error)
}

var _ ControllerInterface = (*Controller)(nil)
