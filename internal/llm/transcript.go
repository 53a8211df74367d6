package llm

import (
	"fmt"
	"strings"

	"github.com/Mhsaeedi07/BriefBot/internal/store"
)

// RenderTranscript flattens archived messages into the plain-text transcript
// format the analysis prompts expect, one "Username (HH:MM): text" line per
// message.
func RenderTranscript(messages []store.Message) string {
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		name := msg.Username
		if name == "" {
			name = fmt.Sprintf("User %d", msg.UserID)
		}
		fmt.Fprintf(&b, "%s (%s): %s", name, msg.Timestamp.Format("15:04"), msg.Text)
	}
	return b.String()
}
