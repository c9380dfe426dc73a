package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"repo-analyzer-client/internal/chat"
	"repo-analyzer-client/internal/tui"
)

func newChatCmd(root *rootOptions) *cobra.Command {
	var question string
	cmd := &cobra.Command{
		Use:   "chat <analysis.json>",
		Short: "Ask questions about a saved analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := readResult(args[0])
			if err != nil {
				return err
			}
			client, err := root.client()
			if err != nil {
				return err
			}

			if question != "" {
				answer, err := client.Chat(cmd.Context(), question, result)
				if err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), chat.ErrorReply)
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), answer)
				return err
			}

			p := tea.NewProgram(
				tui.New(client, result, root.timeout),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().StringVarP(&question, "question", "q", "", "Ask a single question and print the answer")
	return cmd
}
