package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// playerFlags holds the profile sent with create and join
type playerFlags struct {
	name  string
	ship  string
	color int
}

func (p *playerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.name, "name", "", "Display name (default: server default)")
	cmd.Flags().StringVar(&p.ship, "ship", "", "Ship type (default: server default)")
	cmd.Flags().IntVar(&p.color, "color", 0, "Ship color as an integer, e.g. 0x00ff00")
}

func (p *playerFlags) payload() map[string]any {
	data := map[string]any{}
	if p.name != "" {
		data["name"] = p.name
	}
	if p.ship != "" {
		data["ship"] = p.ship
	}
	if p.color != 0 {
		data["color"] = p.color
	}
	return data
}

func newCreateCmd() *cobra.Command {
	var player playerFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a lobby and hold an interactive session",
		Long: `Connect to the relay, create a lobby and print every server event.

Commands are read from stdin, one per line:
` + commandHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(Command{Type: "createLobby", Payload: player.payload()}, cmd.InOrStdin())
		},
	}
	player.register(cmd)

	return cmd
}

func newJoinCmd() *cobra.Command {
	var player playerFlags

	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join a lobby and hold an interactive session",
		Long: `Connect to the relay, join the lobby with the given code and print
every server event.

Commands are read from stdin, one per line:
` + commandHelp,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			join := Command{Type: "joinLobby", Payload: map[string]any{
				"code":       args[0],
				"playerData": player.payload(),
			}}
			return runSession(join, cmd.InOrStdin())
		},
	}
	player.register(cmd)

	return cmd
}

const commandHelp = `  ready                  toggle ready
  start                  start the game (host)
  end                    end the game (host)
  leave                  leave the lobby
  chat <text>            send a chat message
  move <x> <y> [z]       send a position update
  shoot                  fire one bullet
  hit <target> <damage>  report a hit on another player
  kill [score]           report an enemy kill
  quit                   disconnect`

// Command is an outbound socket event
type Command struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// errQuit is returned by ParseCommand for the quit command
var errQuit = errors.New("quit")

// ParseCommand turns one line of user input into an outbound event. Blank
// lines yield a nil command.
func ParseCommand(line string) (*Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}

	switch name, args := strings.ToLower(fields[0]), fields[1:]; name {
	case "quit", "exit":
		return nil, errQuit
	case "ready":
		return &Command{Type: "toggleReady"}, nil
	case "start":
		return &Command{Type: "startGame"}, nil
	case "end":
		return &Command{Type: "endGame"}, nil
	case "leave":
		return &Command{Type: "leaveLobby"}, nil
	case "chat":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		if text == "" {
			return nil, errors.New("usage: chat <text>")
		}
		return &Command{Type: "chatMessage", Payload: map[string]any{"message": text}}, nil
	case "move":
		if len(args) < 2 || len(args) > 3 {
			return nil, errors.New("usage: move <x> <y> [z]")
		}
		coords := make([]float64, 3)
		for i, a := range args {
			v, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid coordinate %q", a)
			}
			coords[i] = v
		}
		return &Command{Type: "playerUpdate", Payload: map[string]any{
			"position": map[string]float64{"x": coords[0], "y": coords[1], "z": coords[2]},
		}}, nil
	case "shoot":
		return &Command{Type: "playerShoot", Payload: map[string]any{
			"bullets": []map[string]float64{{"x": 0, "y": 0, "vx": 0, "vy": 1}},
		}}, nil
	case "hit":
		if len(args) != 2 {
			return nil, errors.New("usage: hit <target> <damage>")
		}
		damage, err := strconv.Atoi(args[1])
		if err != nil || damage < 0 {
			return nil, fmt.Errorf("invalid damage %q", args[1])
		}
		return &Command{Type: "playerHit", Payload: map[string]any{"targetId": args[0], "damage": damage}}, nil
	case "kill":
		payload := map[string]any{}
		if len(args) > 0 {
			score, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, fmt.Errorf("invalid score %q", args[0])
			}
			payload["score"] = score
		}
		return &Command{Type: "enemyKilled", Payload: payload}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}

func runSession(first Command, in io.Reader) error {
	wsURL, err := cfg.WebsocketURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	out := NewOutput(cfg.Output)
	if cfg.Verbose {
		out.PrintMessage("Connected to " + wsURL)
	}

	// Reader: print every server event until the socket closes
	readDone := make(chan error, 1)
	go func() {
		for {
			var evt ServerEvent
			if err := conn.ReadJSON(&evt); err != nil {
				readDone <- err
				return
			}
			out.PrintEvent(evt)
		}
	}()

	if err := conn.WriteJSON(first); err != nil {
		return fmt.Errorf("send %s: %w", first.Type, err)
	}

	// Writer: forward stdin commands until quit, EOF or interrupt
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case err := <-readDone:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)

		case <-sigCh:
			return closeSession(conn, readDone)

		case line, ok := <-lines:
			if !ok {
				return closeSession(conn, readDone)
			}
			cmd, err := ParseCommand(line)
			if errors.Is(err, errQuit) {
				return closeSession(conn, readDone)
			}
			if err != nil {
				out.PrintError(err)
				continue
			}
			if cmd == nil {
				continue
			}
			if err := conn.WriteJSON(cmd); err != nil {
				return fmt.Errorf("send %s: %w", cmd.Type, err)
			}
		}
	}
}

// closeSession performs the websocket close handshake
func closeSession(conn *websocket.Conn, readDone <-chan error) error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		return nil
	}
	select {
	case <-readDone:
	case <-time.After(time.Second):
	}
	return nil
}
