package transcript

import (
	"fmt"
	"strings"
)

// Discord rejects messages above 2000 characters.
const maxMessageLen = 2000

// Message is the rendered per-utterance channel post.
type Message struct {
	Speaker      string
	LanguageName string
	Original     string
	Translation  string
}

// Render formats one utterance for posting to the text channel.
func (m Message) Render() string {
	var b strings.Builder

	if m.Translation != "" {
		fmt.Fprintf(&b, "**%s**", m.Speaker)
		if m.LanguageName != "" {
			fmt.Fprintf(&b, " (%s)", m.LanguageName)
		}
		fmt.Fprintf(&b, "\nOriginal: %s\nTranslated: %s", m.Original, m.Translation)
	} else {
		fmt.Fprintf(&b, "🗣️ **%s**: %s", m.Speaker, m.Original)
	}

	return Truncate(b.String(), maxMessageLen)
}

// Truncate bounds a message, marking the cut with an ellipsis.
func Truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	const ellipsis = "…"
	budget := limit - len(ellipsis)
	out := make([]rune, 0, budget)
	size := 0
	for _, r := range text {
		rl := len(string(r))
		if size+rl > budget {
			break
		}
		out = append(out, r)
		size += rl
	}
	return string(out) + ellipsis
}
