// Package fanout delivers server events to lobby members.
package fanout

import "github.com/mcoot/spacetime-relay/internal/model"

// Notifier delivers a message to one connection. Delivery is best effort;
// Send never blocks and never reports failure.
type Notifier interface {
	Send(id model.PlayerID, msg model.Message)
}

// ToAll sends msg to every member of the lobby
func ToAll(n Notifier, lobby *model.Lobby, msg model.Message) {
	for _, m := range lobby.Members {
		n.Send(m.ID, msg)
	}
}

// ToOthers sends msg to every member of the lobby except the sender
func ToOthers(n Notifier, lobby *model.Lobby, sender model.PlayerID, msg model.Message) {
	for _, m := range lobby.Members {
		if m.ID != sender {
			n.Send(m.ID, msg)
		}
	}
}
