package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/imartinez/glosa/internal/session"
	"github.com/imartinez/glosa/internal/transcript"
)

const commandTimeout = 30 * time.Second

// onMessage routes prefix commands from guild text channels.
func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	prefix := b.cfg.Discord.Prefix
	if !strings.HasPrefix(m.Content, prefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, prefix))
	if len(fields) == 0 {
		return
	}
	command := strings.ToLower(fields[0])
	args := fields[1:]

	ctx, cancel := context.WithTimeout(b.runCtx, commandTimeout)
	defer cancel()

	var reply string
	switch command {
	case "join":
		reply = b.cmdJoin(ctx, m)
	case "start":
		reply = b.cmdStart(ctx, m)
	case "stop":
		reply = b.cmdStop(ctx, m)
	case "leave":
		reply = b.cmdLeave(ctx, m)
	case "history":
		reply = b.cmdHistory(ctx, m, args)
	case "help":
		reply = b.usage()
	default:
		return
	}

	if reply == "" {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		b.logger.Warn("command reply failed",
			"guild_id", m.GuildID,
			"command", command,
			"error", err.Error(),
		)
	}
}

// cmdJoin connects the bot to the author's voice channel.
func (b *Bot) cmdJoin(ctx context.Context, m *discordgo.MessageCreate) string {
	voiceState, err := b.session.State.VoiceState(m.GuildID, m.Author.ID)
	if err != nil || voiceState == nil || voiceState.ChannelID == "" {
		return "❌ You need to be in a voice channel."
	}

	b.mu.Lock()
	gv, ok := b.guilds[m.GuildID]
	if !ok {
		gv = &guildVoice{}
		b.guilds[m.GuildID] = gv
	}
	gv.textChannelID = m.ChannelID
	b.mu.Unlock()

	controller := b.controller(m.GuildID)
	if err := controller.Join(ctx, voiceState.ChannelID); err != nil {
		b.logger.Error("join failed", "guild_id", m.GuildID, "error", err.Error())
		return "❌ Could not join the voice channel."
	}
	return "✅ Connected and ready to transcribe! Use `" + b.cfg.Discord.Prefix + "start` to begin."
}

// cmdStart begins recording in the connected channel.
func (b *Bot) cmdStart(ctx context.Context, m *discordgo.MessageCreate) string {
	controller, ok := b.registry.Get(m.GuildID)
	if !ok {
		return "❌ I need to be in a voice channel! Use `" + b.cfg.Discord.Prefix + "join` first."
	}

	b.mu.Lock()
	if gv := b.guilds[m.GuildID]; gv != nil {
		gv.textChannelID = m.ChannelID
	}
	b.mu.Unlock()

	switch err := controller.Start(ctx); {
	case err == nil:
		return "🎙️ Transcribing! I will detect speech automatically."
	case errors.Is(err, session.ErrAlreadyRecording):
		return "⚠️ Already recording!"
	case errors.Is(err, session.ErrNotConnected):
		return "❌ I need to be in a voice channel! Use `" + b.cfg.Discord.Prefix + "join` first."
	default:
		b.logger.Error("start failed", "guild_id", m.GuildID, "error", err.Error())
		return "❌ Could not start recording."
	}
}

// cmdStop ends the active recording.
func (b *Bot) cmdStop(ctx context.Context, m *discordgo.MessageCreate) string {
	controller, ok := b.registry.Get(m.GuildID)
	if !ok {
		return "⚠️ Not recording!"
	}

	switch err := controller.Stop(ctx); {
	case err == nil:
		return "🛑 Transcription stopped!"
	case errors.Is(err, session.ErrNotRecording), errors.Is(err, session.ErrNotConnected):
		return "⚠️ Not recording!"
	default:
		b.logger.Error("stop failed", "guild_id", m.GuildID, "error", err.Error())
		return "❌ Could not stop recording."
	}
}

// cmdLeave disconnects from the voice channel.
func (b *Bot) cmdLeave(ctx context.Context, m *discordgo.MessageCreate) string {
	controller, ok := b.registry.Get(m.GuildID)
	if !ok {
		return "⚠️ I'm not connected to any voice channel."
	}

	switch err := controller.Leave(ctx); {
	case err == nil:
		return "👋 Disconnected from the voice channel!"
	case errors.Is(err, session.ErrNotConnected):
		return "⚠️ I'm not connected to any voice channel."
	default:
		b.logger.Error("leave failed", "guild_id", m.GuildID, "error", err.Error())
		return "❌ Could not disconnect."
	}
}

// cmdHistory prints the guild's most recent transcripts.
func (b *Bot) cmdHistory(ctx context.Context, m *discordgo.MessageCreate, args []string) string {
	if b.history == nil {
		return "⚠️ Transcript history is disabled."
	}

	limit := 10
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	transcripts, err := b.history.Recent(ctx, m.GuildID, limit)
	if err != nil {
		b.logger.Error("history lookup failed", "guild_id", m.GuildID, "error", err.Error())
		return "❌ Could not load transcript history."
	}
	if len(transcripts) == 0 {
		return "No transcripts recorded for this server yet."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Last %d transcript(s):\n", len(transcripts))
	for _, t := range transcripts {
		fmt.Fprintf(&sb, "- [%s] **%s**", t.CreatedAt.Format("15:04:05"), t.UserName)
		if t.Language != "" {
			fmt.Fprintf(&sb, " (%s)", t.Language)
		}
		fmt.Fprintf(&sb, ": %s\n", t.Text)
	}

	return transcript.Truncate(sb.String(), 2000)
}

// usage renders the command summary posted for the help command.
func (b *Bot) usage() string {
	p := b.cfg.Discord.Prefix
	return fmt.Sprintf(
		"Commands:\n"+
			"`%sjoin` — join your voice channel\n"+
			"`%sstart` — start transcribing\n"+
			"`%sstop` — stop transcribing\n"+
			"`%sleave` — leave the voice channel\n"+
			"`%shistory [n]` — show recent transcripts",
		p, p, p, p, p,
	)
}
