package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/Mhsaeedi07/BriefBot/internal/consts"
)

// Main command router and basic commands

func (b *Bot) handleCommand(in *Incoming) error {
	message := in.Message
	command := "/" + message.Command()

	startTime := time.Now()
	var err error

	switch command {
	// Basic commands
	case consts.CommandStart:
		err = b.handleStartCommand(in)
	case consts.CommandHelp:
		err = b.handleHelpCommand(in)

	// Analysis commands (implemented in commands_analysis.go)
	case consts.CommandSummary:
		err = b.handleSummaryCommand(in)
	case consts.CommandMissed:
		err = b.handleMissedCommand(in)
	case consts.CommandAsk:
		err = b.handleAskCommand(in)

	// Voice commands (implemented in voice.go)
	case consts.CommandText:
		err = b.handleTextCommand(in)

	// Storage commands (implemented in commands_info.go / commands_manage.go)
	case consts.CommandStats:
		err = b.handleStatsCommand(in)
	case consts.CommandCleanup:
		err = b.handleCleanupCommand(in)
	case consts.CommandReset:
		err = b.handleResetCommand(in)
	case consts.CommandInit:
		err = b.handleInitCommand(in)

	default:
		// Unknown commands are ignored; other bots in the group may own them
		return nil
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	if b.metrics != nil {
		b.metrics.RecordCommand(message.Chat.ID, strings.TrimPrefix(command, "/"), status, time.Since(startTime))
	}

	return err
}

func (b *Bot) handleStartCommand(in *Incoming) error {
	welcomeMsg := `👋 <b>Hi! I'm your group assistant.</b>

Add me to a group and I'll quietly archive the conversation so you can catch up whenever you need to.

<b>🚀 Getting started:</b>
1. Add me to your group (forum topics supported)
2. Let the conversation flow
3. Reply to any message and use the commands below

<b>📝 What I can do:</b>
• /summary - Summarize the conversation from a replied-to message onwards
• /missed - Extract your personal action items from that point
• /ask &lt;question&gt; - Answer questions about the conversation
• 🎙️ Voice messages are transcribed automatically

Use /help to see all commands.`

	b.sendReply(in, welcomeMsg)
	return nil
}

func (b *Bot) handleHelpCommand(in *Incoming) error {
	helpMsg := fmt.Sprintf(`📖 <b>Commands</b>

<b>Catch up:</b>
• /summary - Reply to a message, get a summary from there onwards
• /missed - Reply to a message, get your personal action items
• /ask &lt;question&gt; - Reply to a message and ask about the conversation

<b>Voice:</b>
• Voice notes are transcribed and archived automatically
• /text - Reply to a voice message to transcribe it again

<b>Storage:</b>
• /stats - Message and storage statistics
• /cleanup - Remove messages older than %d days now
• /reset - Delete everything stored for this chat
• /init - Prepare the archive for this chat or topic

Messages are kept for %d days and purged automatically. In forum groups each topic has its own archive.`,
		b.config.RetentionDays, b.config.RetentionDays)

	b.sendReply(in, helpMsg)
	return nil
}
