package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Join a game and play interactively",
		Long: `play connects to the game server, joins a room (matching with a waiting
player or opening a new room), and reads moves from stdin.

Commands at the prompt:
  move <row> <col>   place your mark (0-2 each)
  board              redraw the board
  restart            start a fresh game after one ends
  leave              leave the room
  stats              show your record and the leaderboard
  quit               disconnect and exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("no auth token; run `gridlock login` first")
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			session, err := Dial(ctx, cfg.ServerURL, cfg.Token)
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.Join(ctx); err != nil {
				return fmt.Errorf("failed to join: %w", err)
			}

			// Server pushes print between prompts; the board is redrawn
			// after every room-changing event.
			go func() {
				for event := range session.Events {
					fmt.Printf("\n%s\n", event)
					if room := session.Room(); room != nil {
						fmt.Print(RenderRoom(room, session.MySymbol()))
					}
					fmt.Print("> ")
				}
			}()

			fmt.Print("> ")
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					fmt.Print("> ")
					continue
				}
				if done := runPlayCommand(ctx, session, line); done {
					return nil
				}
				fmt.Print("> ")
			}
			return scanner.Err()
		},
	}
}

// runPlayCommand executes one prompt line. Returns true when the session
// should end.
func runPlayCommand(ctx context.Context, session *Session, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "move":
		if len(fields) != 3 {
			fmt.Println("usage: move <row> <col>")
			return false
		}
		row, err1 := strconv.Atoi(fields[1])
		col, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil {
			fmt.Println("row and col must be numbers 0-2")
			return false
		}
		if err := session.Move(ctx, row, col); err != nil {
			fmt.Println(err)
		}
	case "board":
		fmt.Print(RenderRoom(session.Room(), session.MySymbol()))
	case "restart":
		if err := session.Restart(ctx); err != nil {
			fmt.Println(err)
		}
	case "leave":
		if err := session.Leave(ctx); err != nil {
			fmt.Println(err)
		}
	case "stats":
		if err := session.RequestStats(ctx); err != nil {
			fmt.Println(err)
		}
	case "quit", "exit":
		return true
	default:
		fmt.Printf("unknown command: %s\n", fields[0])
	}
	return false
}
