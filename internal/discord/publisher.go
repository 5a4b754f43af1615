package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/imartinez/glosa/internal/transcript"
)

// channelPublisher posts rendered utterances to one text channel,
// rate-limited to stay under Discord's message quotas.
type channelPublisher struct {
	session   *discordgo.Session
	channelID string
	limiter   *rate.Limiter
}

func newChannelPublisher(session *discordgo.Session, channelID string, limiter *rate.Limiter) *channelPublisher {
	return &channelPublisher{session: session, channelID: channelID, limiter: limiter}
}

// Publish sends one message, waiting for rate-limit headroom first.
func (p *channelPublisher) Publish(ctx context.Context, msg transcript.Message) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for message rate limit: %w", err)
		}
	}

	if _, err := p.session.ChannelMessageSend(p.channelID, msg.Render()); err != nil {
		return fmt.Errorf("send channel message: %w", err)
	}
	return nil
}
