// Package discord wires the gateway, voice receive, and command handling.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/imartinez/glosa/internal/config"
	"github.com/imartinez/glosa/internal/pipeline"
	"github.com/imartinez/glosa/internal/session"
	"github.com/imartinez/glosa/internal/store"
)

// HistoryProvider serves the history command; nil disables it.
type HistoryProvider interface {
	Recent(ctx context.Context, guildID string, limit int) ([]store.Transcript, error)
}

// Bot owns the gateway session and all per-guild voice machinery.
type Bot struct {
	cfg    config.Config
	logger *slog.Logger

	session    *discordgo.Session
	registry   *session.Registry
	recognizer pipeline.Recognizer
	translator pipeline.Translator
	archiver   pipeline.Archiver
	history    HistoryProvider
	limiter    *rate.Limiter

	runCtx context.Context

	mu     sync.Mutex
	guilds map[string]*guildVoice
}

// guildVoice is one guild's live voice connection and pipeline.
type guildVoice struct {
	voice         *discordgo.VoiceConnection
	textChannelID string
	pipeline      *pipeline.Pipeline
	cancelRecv    context.CancelFunc
	recvDone      chan struct{}
}

// New builds the bot and its gateway session without connecting.
func New(
	cfg config.Config,
	logger *slog.Logger,
	recognizer pipeline.Recognizer,
	translator pipeline.Translator,
	archiver pipeline.Archiver,
	history HistoryProvider,
) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent

	b := &Bot{
		cfg:        cfg,
		logger:     logger,
		session:    dg,
		registry:   session.NewRegistry(),
		recognizer: recognizer,
		translator: translator,
		archiver:   archiver,
		history:    history,
		limiter:    rate.NewLimiter(rate.Limit(cfg.Limits.MessageRate), cfg.Limits.MessageBurst),
		guilds:     make(map[string]*guildVoice),
	}

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onMessage)

	return b, nil
}

// Registry exposes per-guild session states for status reporting.
func (b *Bot) Registry() *session.Registry {
	return b.registry
}

// Open connects to the gateway; ctx bounds all voice receive loops.
func (b *Bot) Open(ctx context.Context) error {
	b.runCtx = ctx
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

// Close tears down all guild sessions and the gateway connection.
func (b *Bot) Close() error {
	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b.mu.Lock()
	guildIDs := make([]string, 0, len(b.guilds))
	for guildID := range b.guilds {
		guildIDs = append(guildIDs, guildID)
	}
	b.mu.Unlock()

	for _, guildID := range guildIDs {
		if controller, ok := b.registry.Get(guildID); ok {
			if err := controller.Leave(closeCtx); err != nil {
				b.logger.Warn("leave on shutdown failed", "guild_id", guildID, "error", err.Error())
			}
		}
	}

	return b.session.Close()
}

// onReady logs the connected identity.
func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("gateway ready",
		"username", r.User.Username,
		"guild_count", len(r.Guilds),
	)
}

// controller returns the guild's controller, creating one on first use.
func (b *Bot) controller(guildID string) *session.Controller {
	if c, ok := b.registry.Get(guildID); ok {
		return c
	}

	c := session.NewController(guildID, b.logger, session.Hooks{
		Connect:        func(ctx context.Context, channelID string) error { return b.connectVoice(ctx, guildID, channelID) },
		Disconnect:     func(ctx context.Context) error { return b.disconnectVoice(ctx, guildID) },
		StartRecording: func(ctx context.Context) error { return b.startRecording(ctx, guildID) },
		StopRecording:  func(ctx context.Context) error { return b.stopRecording(ctx, guildID) },
	})
	b.registry.Put(guildID, c)
	return c
}
