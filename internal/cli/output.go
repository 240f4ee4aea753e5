package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// PrintEvent outputs one server event received over the socket
func (o *Output) PrintEvent(evt ServerEvent) {
	if o.format == "json" {
		data, _ := json.Marshal(evt)
		fmt.Fprintln(o.w, string(data))
		return
	}

	timestamp := time.Now().Format("15:04:05")
	payload := strings.TrimSpace(string(evt.Payload))
	if len(payload) > 120 {
		payload = payload[:120] + "..."
	}
	if payload == "" {
		fmt.Fprintf(o.w, "[%s] %s\n", timestamp, evt.Type)
		return
	}
	fmt.Fprintf(o.w, "[%s] %s: %s\n", timestamp, evt.Type, payload)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Lobby:
		o.printLobby(v)
	case LobbyList:
		o.printLobbyList(v)
	case Stats:
		o.printStats(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Lobby response type (matches API)
type Lobby struct {
	Code        string    `json:"code"`
	Host        string    `json:"host"`
	Phase       string    `json:"phase"`
	MemberCount int       `json:"memberCount"`
	MaxPlayers  int       `json:"maxPlayers"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LobbyList response type
type LobbyList struct {
	Lobbies []Lobby `json:"lobbies"`
}

// Stats response type
type Stats struct {
	Connections     int   `json:"connections"`
	Lobbies         int   `json:"lobbies"`
	EventsHandled   int64 `json:"eventsHandled"`
	EventsDropped   int64 `json:"eventsDropped"`
	MessagesSent    int64 `json:"messagesSent"`
	MessagesDropped int64 `json:"messagesDropped"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// ServerEvent is an event received over the socket
type ServerEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (o *Output) printLobby(l Lobby) {
	fmt.Fprintf(o.w, "Lobby: %s\n", l.Code)
	fmt.Fprintf(o.w, "Phase: %s\n", l.Phase)
	fmt.Fprintf(o.w, "Host: %s\n", l.Host)
	fmt.Fprintf(o.w, "Players: %d/%d\n", l.MemberCount, l.MaxPlayers)
	fmt.Fprintf(o.w, "Created: %s\n", l.CreatedAt.Format(time.RFC3339))
}

func (o *Output) printLobbyList(l LobbyList) {
	if len(l.Lobbies) == 0 {
		fmt.Fprintln(o.w, "No lobbies")
		return
	}
	for _, lobby := range l.Lobbies {
		fmt.Fprintf(o.w, "%-8s %-9s %d/%d  host %s\n",
			lobby.Code, lobby.Phase, lobby.MemberCount, lobby.MaxPlayers, lobby.Host)
	}
}

func (o *Output) printStats(s Stats) {
	fmt.Fprintf(o.w, "Connections: %d\n", s.Connections)
	fmt.Fprintf(o.w, "Lobbies: %d\n", s.Lobbies)
	fmt.Fprintf(o.w, "Events: %d handled, %d dropped\n", s.EventsHandled, s.EventsDropped)
	fmt.Fprintf(o.w, "Messages: %d sent, %d dropped\n", s.MessagesSent, s.MessagesDropped)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
