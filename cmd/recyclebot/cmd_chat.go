package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"recyclebot/internal/chat"
	"recyclebot/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in the terminal",
	Long:  `Start a full-screen terminal conversation. Logs go to a file since the UI owns the terminal.`,
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cls, resp, err := buildConversation(ctx, cfg, log)
	if err != nil {
		return err
	}
	sess := chat.NewSession(uuid.NewString(), cls, resp, log)

	title := "Framingham Recycling Q&A"
	if cfg.Demo {
		title += " (demo)"
	}
	_, err = tea.NewProgram(tui.New(ctx, sess, title), tea.WithAltScreen()).Run()
	return err
}
