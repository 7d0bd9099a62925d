package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"recyclebot/internal/chat"
	"recyclebot/internal/session"
	"recyclebot/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web front end",
	Long:  `Serve the chat page, the FAQ and the JSON API. Each browser session gets its own conversation.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if log.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cls, resp, err := buildConversation(ctx, cfg, log)
	if err != nil {
		return err
	}
	registry, err := session.NewRegistry(cfg.Server.MaxSessions, func(id string) *chat.Session {
		return chat.NewSession(id, cls, resp, log)
	})
	if err != nil {
		return err
	}
	srv, err := web.NewServer(cfg.Server, registry, log, cfg.Demo)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
