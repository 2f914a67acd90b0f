package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/lithammer/shortuuid/v4"
	"github.com/spf13/cobra"

	"github.com/thenoname-gurl/Brain/plugin/brain"
)

func chatCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the engine on stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			b, err := openBrain(ctx, p, newLogger(p))
			if err != nil {
				return err
			}
			defer b.Store().Close(ctx)

			if sessionID == "" {
				sessionID = shortuuid.New()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s, /quit to leave\n", sessionID)
			return repl(cmd, b, sessionID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (random when empty)")
	return cmd
}

// repl answers one line at a time until EOF or /quit.
func repl(cmd *cobra.Command, b *brain.Brain, sessionID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}

		b.Store().Lock()
		res, err := b.Chat(cmd.Context(), sessionID, line, nil)
		b.Store().Unlock()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, res.Reply)
		fmt.Fprintf(out, "  [%s %.2f]\n", res.Debug.Source, res.Debug.Confidence)
	}
}
