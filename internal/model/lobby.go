package model

import (
	"strings"
	"time"
)

// LobbyCode is a human-readable identifier for joining lobbies
type LobbyCode string

const (
	// CodeLength is the length of generated lobby codes
	CodeLength = 6
	// WideCodeLength is used once short codes keep colliding
	WideCodeLength = 8
	// CodeAlphabet is the characters used in lobby codes (avoid confusing chars)
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// ParseLobbyCode normalizes user input into a LobbyCode. Input is trimmed
// and upper-cased, then must be a 6 or 8 character code from CodeAlphabet.
func ParseLobbyCode(raw string) (LobbyCode, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != CodeLength && len(code) != WideCodeLength {
		return "", ErrInvalidCode
	}
	for _, r := range code {
		if !strings.ContainsRune(CodeAlphabet, r) {
			return "", ErrInvalidCode
		}
	}
	return LobbyCode(code), nil
}

// Phase is a lobby's lifecycle stage. It only ever moves forward.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhasePlaying  Phase = "playing"
	PhaseGameOver Phase = "gameover"
)

// rank orders phases for the monotonicity check
func (p Phase) rank() int {
	switch p {
	case PhaseLobby:
		return 0
	case PhasePlaying:
		return 1
	case PhaseGameOver:
		return 2
	default:
		return -1
	}
}

// CanAdvanceTo reports whether next is a legal forward transition from p
func (p Phase) CanAdvanceTo(next Phase) bool {
	return next.rank() == p.rank()+1
}

// Lobby groups players sharing a match
type Lobby struct {
	Code       LobbyCode
	Host       PlayerID
	Members    []*Player // join order
	Phase      Phase
	MaxPlayers int
	CreatedAt  time.Time
}

// GetMember returns the member with the given ID, or nil if not found
func (l *Lobby) GetMember(id PlayerID) *Player {
	for _, m := range l.Members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// IsFull reports whether the lobby has reached capacity
func (l *Lobby) IsFull() bool {
	return len(l.Members) >= l.MaxPlayers
}

// IsEmpty reports whether the lobby has no members
func (l *Lobby) IsEmpty() bool {
	return len(l.Members) == 0
}

// AllReady reports whether at least two members exist and every one is ready
func (l *Lobby) AllReady() bool {
	if len(l.Members) < 2 {
		return false
	}
	for _, m := range l.Members {
		if !m.Ready {
			return false
		}
	}
	return true
}

// MemberIDs returns member IDs in join order
func (l *Lobby) MemberIDs() []PlayerID {
	ids := make([]PlayerID, len(l.Members))
	for i, m := range l.Members {
		ids[i] = m.ID
	}
	return ids
}

// Roster returns value copies of all members in join order
func (l *Lobby) Roster() []Player {
	roster := make([]Player, len(l.Members))
	for i, m := range l.Members {
		roster[i] = m.Snapshot()
	}
	return roster
}

// LobbySummary is a read-only view of a lobby for listings
type LobbySummary struct {
	Code        LobbyCode
	Host        PlayerID
	Phase       Phase
	MemberCount int
	MaxPlayers  int
	CreatedAt   time.Time
}

// Summary returns the lobby's listing view
func (l *Lobby) Summary() LobbySummary {
	return LobbySummary{
		Code:        l.Code,
		Host:        l.Host,
		Phase:       l.Phase,
		MemberCount: len(l.Members),
		MaxPlayers:  l.MaxPlayers,
		CreatedAt:   l.CreatedAt,
	}
}
