package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mcoot/spacetime-relay/internal/dependencies/clock"
	"github.com/mcoot/spacetime-relay/internal/dependencies/random"
	"github.com/mcoot/spacetime-relay/internal/model"
	"github.com/mcoot/spacetime-relay/internal/services/fanout"
	"github.com/mcoot/spacetime-relay/internal/storage"
)

const (
	// DefaultRespawnDelay is the time between a death and the respawn
	DefaultRespawnDelay = 3 * time.Second
	// HitScore is awarded to the shooter for every hit
	HitScore = 10
	// DeathPenalty is taken from a player's score when they respawn
	DeathPenalty = 50
	// DefaultKillScore is used when enemyKilled carries no score
	DefaultKillScore = 100

	spawnWidth  = 200.0
	spawnHeight = 100.0
)

// Executor runs a task on the event sequence that owns lobby state
type Executor func(task func())

// Config holds relay settings
type Config struct {
	RespawnDelay time.Duration
}

// DefaultConfig returns the default relay configuration
func DefaultConfig() Config {
	return Config{RespawnDelay: DefaultRespawnDelay}
}

type respawnKey struct {
	code     model.LobbyCode
	playerID model.PlayerID
}

// Controller relays gameplay events between the members of a running
// lobby. Health and score are the only state it owns.
type Controller struct {
	storage  storage.LobbyStore
	notifier fanout.Notifier
	clock    clock.Clock
	random   random.Random
	exec     Executor
	cfg      Config
	logger   *slog.Logger

	// only touched from the event sequence
	respawns map[respawnKey]clock.Timer
}

// NewController creates a new relay Controller. Respawn timers hand their
// work back through exec so it runs in sequence with other events.
func NewController(
	store storage.LobbyStore,
	notifier fanout.Notifier,
	clk clock.Clock,
	rnd random.Random,
	exec Executor,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if cfg.RespawnDelay <= 0 {
		cfg.RespawnDelay = DefaultRespawnDelay
	}
	return &Controller{
		storage:  store,
		notifier: notifier,
		clock:    clk,
		random:   rnd,
		exec:     exec,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "relay-controller")),
		respawns: make(map[respawnKey]clock.Timer),
	}
}

// resolve finds the caller's lobby and player, requiring the lobby to be in play
func (c *Controller) resolve(ctx context.Context, playerID model.PlayerID) (*model.Lobby, *model.Player, error) {
	lobby, err := c.storage.LobbyForPlayer(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}
	if lobby.Phase != model.PhasePlaying {
		return nil, nil, model.ErrNotPlaying
	}
	player := lobby.GetMember(playerID)
	if player == nil {
		return nil, nil, model.ErrPlayerNotFound
	}
	return lobby, player, nil
}

// PlayerUpdate stores the caller's transform and relays it to everyone else
func (c *Controller) PlayerUpdate(ctx context.Context, playerID model.PlayerID, transform model.Transform) error {
	lobby, player, err := c.resolve(ctx, playerID)
	if err != nil {
		return err
	}

	player.Transform = transform
	fanout.ToOthers(c.notifier, lobby, playerID, model.NewMessage(model.EventPlayerMoved, model.PlayerMovedPayload{
		ID:        playerID,
		Transform: transform,
	}))
	return nil
}

// PlayerShoot relays bullet descriptors to everyone else untouched
func (c *Controller) PlayerShoot(ctx context.Context, playerID model.PlayerID, bullets []json.RawMessage) error {
	lobby, _, err := c.resolve(ctx, playerID)
	if err != nil {
		return err
	}

	if bullets == nil {
		bullets = []json.RawMessage{}
	}
	fanout.ToOthers(c.notifier, lobby, playerID, model.NewMessage(model.EventPlayerShot, model.PlayerShotPayload{
		PlayerID: playerID,
		Bullets:  bullets,
	}))
	return nil
}

// PlayerHit applies damage to a target in the caller's lobby. A hit that
// takes the target to zero or below kills it and schedules a respawn.
func (c *Controller) PlayerHit(ctx context.Context, senderID, targetID, shooterID model.PlayerID, damage int) error {
	if damage < 0 {
		return model.ErrInvalidPayload
	}
	lobby, _, err := c.resolve(ctx, senderID)
	if err != nil {
		return err
	}
	target := lobby.GetMember(targetID)
	if target == nil {
		return model.ErrPlayerNotFound
	}
	key := respawnKey{code: lobby.Code, playerID: targetID}
	if _, dead := c.respawns[key]; dead {
		return model.ErrRespawnPending
	}
	if shooterID == "" {
		shooterID = senderID
	}

	target.Health -= damage
	fanout.ToAll(c.notifier, lobby, model.NewMessage(model.EventPlayerDamaged, model.PlayerDamagedPayload{
		TargetID:  targetID,
		Damage:    damage,
		NewHealth: target.Health,
		ShooterID: shooterID,
	}))

	if shooter := lobby.GetMember(shooterID); shooter != nil {
		shooter.Score += HitScore
	}

	if target.Health > 0 {
		return nil
	}

	fanout.ToAll(c.notifier, lobby, model.NewMessage(model.EventPlayerDied, model.PlayerDiedPayload{
		PlayerID: targetID,
		KillerID: shooterID,
	}))
	c.scheduleRespawn(key)

	c.logger.Debug("player died",
		slog.String("lobby", string(lobby.Code)),
		slog.String("player_id", string(targetID)),
		slog.String("killer_id", string(shooterID)))
	return nil
}

func (c *Controller) scheduleRespawn(key respawnKey) {
	var timer clock.Timer
	timer = c.clock.AfterFunc(c.cfg.RespawnDelay, func() {
		c.exec(func() { c.respawn(key, timer) })
	})
	c.respawns[key] = timer
}

// respawn runs on the event sequence once the delay has elapsed. It does
// nothing unless timer is still the one scheduled for key, since the
// player may have left, rejoined or died again in the meantime.
func (c *Controller) respawn(key respawnKey, timer clock.Timer) {
	if current, pending := c.respawns[key]; !pending || current != timer {
		return
	}
	delete(c.respawns, key)

	ctx := context.Background()
	lobby, player, err := c.resolve(ctx, key.playerID)
	if err != nil || lobby.Code != key.code {
		c.logger.Debug("respawn abandoned",
			slog.String("lobby", string(key.code)),
			slog.String("player_id", string(key.playerID)))
		return
	}

	player.Health = model.MaxHealth
	player.Score -= DeathPenalty
	position := model.Vector3{
		X: (c.random.Float64() - 0.5) * spawnWidth,
		Y: (c.random.Float64() - 0.5) * spawnHeight,
		Z: 0,
	}
	player.Position = position

	fanout.ToAll(c.notifier, lobby, model.NewMessage(model.EventPlayerRespawned, model.PlayerRespawnedPayload{
		PlayerID: key.playerID,
		Position: position,
	}))
}

// EnemyKilled adds to the caller's score. A zero delta means the default.
func (c *Controller) EnemyKilled(ctx context.Context, playerID model.PlayerID, delta int) error {
	lobby, player, err := c.resolve(ctx, playerID)
	if err != nil {
		return err
	}
	if delta == 0 {
		delta = DefaultKillScore
	}

	player.Score += delta
	fanout.ToAll(c.notifier, lobby, model.NewMessage(model.EventScoreUpdate, model.ScoreUpdatePayload{
		PlayerID: playerID,
		Score:    player.Score,
	}))
	return nil
}

// ChatMessage relays a line of chat to every member, sender included
func (c *Controller) ChatMessage(ctx context.Context, playerID model.PlayerID, text string) error {
	lobby, player, err := c.resolve(ctx, playerID)
	if err != nil {
		return err
	}

	fanout.ToAll(c.notifier, lobby, model.NewMessage(model.EventChatMessage, model.ChatPayload{
		PlayerID:   playerID,
		PlayerName: player.Name,
		Message:    text,
	}))
	return nil
}

// CancelRespawn stops a pending respawn for a player who left the lobby
func (c *Controller) CancelRespawn(code model.LobbyCode, playerID model.PlayerID) {
	key := respawnKey{code: code, playerID: playerID}
	if timer, ok := c.respawns[key]; ok {
		timer.Stop()
		delete(c.respawns, key)
	}
}

// CancelLobby stops every pending respawn in a lobby that no longer exists
func (c *Controller) CancelLobby(code model.LobbyCode) {
	for key, timer := range c.respawns {
		if key.code == code {
			timer.Stop()
			delete(c.respawns, key)
		}
	}
}

// PendingRespawns returns the number of scheduled respawns
func (c *Controller) PendingRespawns() int {
	return len(c.respawns)
}

// Interface for dependency injection
type ControllerInterface interface {
	PlayerUpdate(ctx context.Context, playerID model.PlayerID, transform model.Transform) error
	PlayerShoot(ctx context.Context, playerID model.PlayerID, bullets []json.RawMessage) error
	PlayerHit(ctx context.Context, senderID, targetID, shooterID model.PlayerID, damage int) error
	EnemyKilled(ctx context.Context, playerID model.PlayerID, delta int) error
	ChatMessage(ctx context.Context, playerID model.PlayerID, text string) error
	CancelRespawn(code model.LobbyCode, playerID model.PlayerID)
	CancelLobby(code model.LobbyCode)
}

var _ ControllerInterface = (*Controller)(nil)
