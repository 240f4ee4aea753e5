package realtime

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/spacetime-relay/internal/api/apierr"
	"github.com/mcoot/spacetime-relay/internal/api/request"
	"github.com/mcoot/spacetime-relay/internal/model"
	"github.com/mcoot/spacetime-relay/internal/services/fanout"
	"github.com/mcoot/spacetime-relay/internal/services/lobby"
	"github.com/mcoot/spacetime-relay/internal/services/relay"
)

// Dispatcher routes inbound events to the lobby and relay controllers. All
// of its methods must run on the Hub.
type Dispatcher struct {
	lobby    lobby.ControllerInterface
	relay    relay.ControllerInterface
	notifier fanout.Notifier
	metrics  *Metrics
	logger   *slog.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(
	lobbyController lobby.ControllerInterface,
	relayController relay.ControllerInterface,
	notifier fanout.Notifier,
	metrics *Metrics,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		lobby:    lobbyController,
		relay:    relayController,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "dispatcher")),
	}
}

// Handle processes one inbound event from a connection
func (d *Dispatcher) Handle(ctx context.Context, id model.PlayerID, env request.Envelope) {
	err := d.route(ctx, id, env)
	if err == nil {
		d.metrics.EventsHandled.Add(1)
		return
	}

	apiErr, ok := apierr.ForClient(err)
	if !ok {
		d.metrics.EventsDropped.Add(1)
		d.logger.Debug("event dropped",
			slog.String("player_id", string(id)),
			slog.String("type", string(env.Type)),
			slog.String("reason", err.Error()))
		return
	}

	d.metrics.EventsHandled.Add(1)
	errType := model.EventError
	if env.Type == model.EventCreateLobby || env.Type == model.EventJoinLobby {
		errType = model.EventLobbyError
	}
	d.notifier.Send(id, model.NewMessage(errType, model.ErrorPayload{
		Code:    apiErr.Code,
		Message: apiErr.Message,
	}))
}

func (d *Dispatcher) route(ctx context.Context, id model.PlayerID, env request.Envelope) error {
	switch env.Type {
	case model.EventCreateLobby:
		var req request.CreateLobbyRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		_, err := d.lobby.CreateLobby(ctx, id, req.Profile())
		return err

	case model.EventJoinLobby:
		var req request.JoinLobbyRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		_, err := d.lobby.JoinLobby(ctx, id, req.Code, req.PlayerData.Profile())
		return err

	case model.EventLeaveLobby:
		return d.leave(ctx, id)

	case model.EventToggleReady:
		return d.lobby.ToggleReady(ctx, id)

	case model.EventStartGame:
		return d.lobby.StartGame(ctx, id)

	case model.EventEndGame:
		return d.lobby.EndGame(ctx, id)

	case model.EventPlayerUpdate:
		var req request.PlayerUpdateRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		return d.relay.PlayerUpdate(ctx, id, req)

	case model.EventPlayerShoot:
		var req request.PlayerShootRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		return d.relay.PlayerShoot(ctx, id, req.Bullets)

	case model.EventPlayerHit:
		var req request.PlayerHitRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		return d.relay.PlayerHit(ctx, id, req.TargetID, req.ShooterID, req.Damage)

	case model.EventEnemyKilled:
		var req request.EnemyKilledRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		return d.relay.EnemyKilled(ctx, id, req.Score)

	case model.EventChatMessage:
		var req request.ChatMessageRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		return d.relay.ChatMessage(ctx, id, req.Message)

	default:
		return errUnknownEvent
	}
}

var errUnknownEvent = errors.New("unknown event type")

func decode(env request.Envelope, v any) error {
	if err := env.Decode(v); err != nil {
		return errors.Join(model.ErrInvalidPayload, err)
	}
	return nil
}

// Disconnect cleans up after a connection that has gone away
func (d *Dispatcher) Disconnect(ctx context.Context, id model.PlayerID) {
	if err := d.leave(ctx, id); err != nil && !errors.Is(err, model.ErrNotInLobby) {
		d.logger.Warn("disconnect cleanup failed",
			slog.String("player_id", string(id)),
			slog.String("error", err.Error()))
	}
}

func (d *Dispatcher) leave(ctx context.Context, id model.PlayerID) error {
	departure, err := d.lobby.LeaveLobby(ctx, id)
	if err != nil {
		return err
	}
	d.relay.CancelRespawn(departure.Code, id)
	if departure.LobbyDeleted {
		d.relay.CancelLobby(departure.Code)
	}
	return nil
}
