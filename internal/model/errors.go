package model

import "errors"

// Common errors used across the application
var (
	// Errors reported back to the originating client
	ErrLobbyNotFound  = errors.New("lobby not found")
	ErrLobbyFull      = errors.New("lobby is full")
	ErrNotHost        = errors.New("player is not the host")
	ErrAlreadyInLobby = errors.New("player is already in a lobby")
	ErrInvalidCode    = errors.New("invalid lobby code")
	ErrGameInProgress = errors.New("game is in progress")

	// Errors that cause an event to be dropped
	ErrNotInLobby             = errors.New("player is not in a lobby")
	ErrNotPlaying             = errors.New("lobby is not playing")
	ErrPlayerNotFound         = errors.New("player not found")
	ErrInvalidPayload         = errors.New("invalid event payload")
	ErrInvalidPhaseTransition = errors.New("invalid phase transition")
	ErrRespawnPending         = errors.New("player is waiting to respawn")

	// Lobby store errors
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique lobby code")
)
