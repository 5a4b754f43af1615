package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/imartinez/glosa/internal/pipeline"
)

// connectVoice joins (or moves to) a guild voice channel.
func (b *Bot) connectVoice(_ context.Context, guildID string, channelID string) error {
	// Muted because the bot never transmits; undeafened to receive audio.
	voice, err := b.session.ChannelVoiceJoin(guildID, channelID, true, false)
	if err != nil {
		return fmt.Errorf("join voice channel %s: %w", channelID, err)
	}

	b.mu.Lock()
	gv, ok := b.guilds[guildID]
	if !ok {
		gv = &guildVoice{}
		b.guilds[guildID] = gv
	}
	gv.voice = voice
	b.mu.Unlock()

	voice.AddHandler(func(_ *discordgo.VoiceConnection, vs *discordgo.VoiceSpeakingUpdate) {
		b.onSpeakingUpdate(guildID, vs)
	})

	return nil
}

// disconnectVoice leaves the guild's voice channel and clears its state.
func (b *Bot) disconnectVoice(_ context.Context, guildID string) error {
	b.mu.Lock()
	gv := b.guilds[guildID]
	delete(b.guilds, guildID)
	b.mu.Unlock()

	if gv == nil || gv.voice == nil {
		return nil
	}
	return gv.voice.Disconnect()
}

// startRecording builds the guild pipeline and starts the receive loop.
func (b *Bot) startRecording(_ context.Context, guildID string) error {
	b.mu.Lock()
	gv := b.guilds[guildID]
	b.mu.Unlock()

	if gv == nil || gv.voice == nil {
		return errors.New("no active voice connection")
	}

	publisher := newChannelPublisher(b.session, gv.textChannelID, b.limiter)
	pipe, err := pipeline.New(b.runCtx, pipeline.Config{
		SampleRate:     b.cfg.Speech.SampleRate,
		FrameMS:        b.cfg.VAD.FrameMS,
		PaddingMS:      b.cfg.VAD.PaddingMS,
		SilenceMS:      b.cfg.VAD.SilenceMS,
		MaxUtteranceMS: b.cfg.VAD.MaxUtteranceMS,
		Aggressiveness: b.cfg.VAD.Aggressiveness,
		Workers:        b.cfg.Limits.RecognizeWorkers,
		TempAudioDir:   b.cfg.Paths.TempAudioDir,
		AudioDump:      b.cfg.Debug.AudioDump,
		Capitalize:     b.cfg.Transcript.CapitalizeSentences,
		GuildID:        guildID,
		ChannelID:      gv.textChannelID,
	}, b.logger, b.recognizer, b.translator, publisher, b.archiver)
	if err != nil {
		return err
	}

	recvCtx, cancel := context.WithCancel(b.runCtx)
	done := make(chan struct{})

	b.mu.Lock()
	gv.pipeline = pipe
	gv.cancelRecv = cancel
	gv.recvDone = done
	b.mu.Unlock()

	go b.receive(recvCtx, guildID, gv.voice, pipe, done)
	return nil
}

// stopRecording halts the receive loop and flushes the pipeline.
func (b *Bot) stopRecording(ctx context.Context, guildID string) error {
	b.mu.Lock()
	gv := b.guilds[guildID]
	var (
		cancel   context.CancelFunc
		recvDone chan struct{}
		pipe     *pipeline.Pipeline
	)
	if gv != nil {
		cancel = gv.cancelRecv
		recvDone = gv.recvDone
		pipe = gv.pipeline
		gv.cancelRecv = nil
		gv.recvDone = nil
		gv.pipeline = nil
	}
	b.mu.Unlock()

	if pipe == nil {
		return errors.New("no active recording pipeline")
	}

	if cancel != nil {
		cancel()
	}
	if recvDone != nil {
		select {
		case <-recvDone:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	drainCtx, cancelDrain := context.WithTimeout(ctx, drainTimeout)
	defer cancelDrain()
	return pipe.Close(drainCtx)
}

// receive forwards voice packets from the gateway into the pipeline.
func (b *Bot) receive(ctx context.Context, guildID string, voice *discordgo.VoiceConnection, pipe *pipeline.Pipeline, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case packet, ok := <-voice.OpusRecv:
			if !ok {
				return
			}
			if packet == nil || len(packet.Opus) == 0 {
				continue
			}
			if err := pipe.HandleOpus(packet.SSRC, packet.Opus); err != nil {
				b.logger.Warn("voice packet handling failed",
					"guild_id", guildID,
					"ssrc", packet.SSRC,
					"error", err.Error(),
				)
			}
		}
	}
}

// onSpeakingUpdate resolves the user behind an SSRC for attribution.
func (b *Bot) onSpeakingUpdate(guildID string, vs *discordgo.VoiceSpeakingUpdate) {
	if vs == nil || vs.UserID == "" {
		return
	}

	b.mu.Lock()
	gv := b.guilds[guildID]
	b.mu.Unlock()
	if gv == nil || gv.pipeline == nil {
		return
	}

	gv.pipeline.SetSpeaker(uint32(vs.SSRC), pipeline.Speaker{
		UserID:      vs.UserID,
		DisplayName: b.displayName(guildID, vs.UserID),
	})
}

// displayName prefers the guild nick, then username, then the raw id.
func (b *Bot) displayName(guildID string, userID string) string {
	member, err := b.session.GuildMember(guildID, userID)
	if err == nil && member != nil {
		if member.Nick != "" {
			return member.Nick
		}
		if member.User != nil && member.User.Username != "" {
			return member.User.Username
		}
	}

	user, err := b.session.User(userID)
	if err == nil && user != nil && user.Username != "" {
		return user.Username
	}
	return userID
}

// drainTimeout bounds pipeline flush on stop.
const drainTimeout = 20 * time.Second
