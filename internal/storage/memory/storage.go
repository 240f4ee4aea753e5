package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/spacetime-relay/internal/dependencies/clock"
	"github.com/mcoot/spacetime-relay/internal/dependencies/random"
	"github.com/mcoot/spacetime-relay/internal/model"
	"github.com/mcoot/spacetime-relay/internal/storage"
)

const (
	// CodeAttempts bounds collision retries at each code length
	CodeAttempts = 16

	// DefaultMaxPlayers is the lobby capacity when none is configured
	DefaultMaxPlayers = 30
)

// Config holds lobby store settings
type Config struct {
	MaxPlayers int
}

// DefaultConfig returns the default lobby store configuration
func DefaultConfig() Config {
	return Config{MaxPlayers: DefaultMaxPlayers}
}

// Storage is an in-memory LobbyStore
type Storage struct {
	mu          sync.RWMutex
	lobbies     map[model.LobbyCode]*model.Lobby
	playerLobby map[model.PlayerID]model.LobbyCode

	cfg    Config
	clock  clock.Clock
	random random.Random
	logger *slog.Logger
}

// New creates a new in-memory lobby store
func New(cfg Config, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Storage {
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = DefaultMaxPlayers
	}
	return &Storage{
		lobbies:     make(map[model.LobbyCode]*model.Lobby),
		playerLobby: make(map[model.PlayerID]model.LobbyCode),
		cfg:         cfg,
		clock:       clk,
		random:      rnd,
		logger:      logger.With(slog.String("component", "lobby-store")),
	}
}

// Ensure Storage implements the interface
var _ storage.LobbyStore = (*Storage)(nil)

// Lobby lifecycle

// CreateLobby allocates a unique code and stores an empty lobby owned by hostID.
// The caller is expected to add the host as the first member.
func (s *Storage) CreateLobby(ctx context.Context, hostID model.PlayerID, hostName string) (model.LobbyCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := s.allocateCode()
	if err != nil {
		return "", err
	}

	s.lobbies[code] = &model.Lobby{
		Code:       code,
		Host:       hostID,
		Members:    []*model.Player{},
		Phase:      model.PhaseLobby,
		MaxPlayers: s.cfg.MaxPlayers,
		CreatedAt:  s.clock.Now(),
	}

	s.logger.Info("lobby created",
		slog.String("lobby", string(code)),
		slog.String("host_id", string(hostID)),
		slog.String("host_name", hostName))
	return code, nil
}

// allocateCode must be called with mu held
func (s *Storage) allocateCode() (model.LobbyCode, error) {
	for _, length := range []int{model.CodeLength, model.WideCodeLength} {
		for i := 0; i < CodeAttempts; i++ {
			code := model.LobbyCode(s.random.String(length, model.CodeAlphabet))
			if len(code) != length {
				continue
			}
			if _, exists := s.lobbies[code]; !exists {
				return code, nil
			}
		}
		s.logger.Warn("lobby code collisions exhausted attempts",
			slog.Int("length", length),
			slog.Int("attempts", CodeAttempts))
	}
	return "", model.ErrCodeSpaceExhausted
}

func (s *Storage) GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobby, ok := s.lobbies[code]
	if !ok {
		return nil, model.ErrLobbyNotFound
	}
	return lobby, nil
}

// DeleteLobby removes a lobby and unbinds any remaining members. Deleting an
// unknown code is a no-op.
func (s *Storage) DeleteLobby(ctx context.Context, code model.LobbyCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(code)
	return nil
}

func (s *Storage) deleteLocked(code model.LobbyCode) {
	lobby, ok := s.lobbies[code]
	if !ok {
		return
	}
	for _, m := range lobby.Members {
		if s.playerLobby[m.ID] == code {
			delete(s.playerLobby, m.ID)
		}
	}
	delete(s.lobbies, code)
}

func (s *Storage) LobbyExists(ctx context.Context, code model.LobbyCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.lobbies[code]
	return ok, nil
}

// ListLobbies returns summaries of all live lobbies, oldest first
func (s *Storage) ListLobbies(ctx context.Context) ([]model.LobbySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]model.LobbySummary, 0, len(s.lobbies))
	for _, lobby := range s.lobbies {
		summaries = append(summaries, lobby.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].Code < summaries[j].Code
		}
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// GetSummary returns the listing view of one lobby, copied under the lock
func (s *Storage) GetSummary(ctx context.Context, code model.LobbyCode) (model.LobbySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobby, ok := s.lobbies[code]
	if !ok {
		return model.LobbySummary{}, model.ErrLobbyNotFound
	}
	return lobby.Summary(), nil
}

// SweepExpired removes lobbies with no members whose age exceeds retention
func (s *Storage) SweepExpired(ctx context.Context, now time.Time, retention time.Duration) ([]model.LobbyCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []model.LobbyCode
	for code, lobby := range s.lobbies {
		if lobby.IsEmpty() && now.Sub(lobby.CreatedAt) > retention {
			s.deleteLocked(code)
			removed = append(removed, code)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return removed, nil
}

// Membership

// AddMember appends player to the lobby and binds it in the reverse index
func (s *Storage) AddMember(ctx context.Context, code model.LobbyCode, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lobby, ok := s.lobbies[code]
	if !ok {
		return model.ErrLobbyNotFound
	}
	if _, bound := s.playerLobby[player.ID]; bound {
		return model.ErrAlreadyInLobby
	}
	if lobby.IsFull() {
		return model.ErrLobbyFull
	}

	lobby.Members = append(lobby.Members, player)
	s.playerLobby[player.ID] = code
	return nil
}

// RemoveMember unbinds a player and removes it from its lobby, returning
// the lobby it left. The lobby itself is not deleted even if now empty.
func (s *Storage) RemoveMember(ctx context.Context, playerID model.PlayerID) (*model.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.playerLobby[playerID]
	if !ok {
		return nil, model.ErrNotInLobby
	}
	delete(s.playerLobby, playerID)

	lobby, ok := s.lobbies[code]
	if !ok {
		return nil, fmt.Errorf("reverse index points at %s: %w", code, model.ErrLobbyNotFound)
	}

	members := make([]*model.Player, 0, len(lobby.Members))
	for _, m := range lobby.Members {
		if m.ID != playerID {
			members = append(members, m)
		}
	}
	lobby.Members = members
	return lobby, nil
}

// LobbyForPlayer resolves a player's lobby through the reverse index
func (s *Storage) LobbyForPlayer(ctx context.Context, playerID model.PlayerID) (*model.Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	code, ok := s.playerLobby[playerID]
	if !ok {
		return nil, model.ErrNotInLobby
	}
	lobby, ok := s.lobbies[code]
	if !ok {
		return nil, model.ErrLobbyNotFound
	}
	return lobby, nil
}

// Lobby state

// SetHost assigns the host. The new host must be a current member.
func (s *Storage) SetHost(ctx context.Context, code model.LobbyCode, hostID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lobby, ok := s.lobbies[code]
	if !ok {
		return model.ErrLobbyNotFound
	}
	if lobby.GetMember(hostID) == nil {
		return model.ErrPlayerNotFound
	}
	lobby.Host = hostID
	return nil
}

// SetPhase advances the lobby phase. Only forward single-step transitions
// are accepted.
func (s *Storage) SetPhase(ctx context.Context, code model.LobbyCode, phase model.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lobby, ok := s.lobbies[code]
	if !ok {
		return model.ErrLobbyNotFound
	}
	if !lobby.Phase.CanAdvanceTo(phase) {
		return fmt.Errorf("%s to %s: %w", lobby.Phase, phase, model.ErrInvalidPhaseTransition)
	}
	lobby.Phase = phase
	return nil
}
