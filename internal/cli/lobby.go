package cli

import (
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newLobbiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lobbies",
		Short: "List live lobbies",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LobbyList

			if err := client.Get("/api/v1/lobbies", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newLobbyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lobby",
		Short: "Lobby inspection commands",
	}

	cmd.AddCommand(newLobbyGetCmd())

	return cmd
}

func newLobbyGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <code>",
		Short: "Get lobby details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.TrimSpace(args[0])

			var result Lobby

			if err := client.Get("/api/v1/lobbies/"+url.PathEscape(code), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
