package consts

// Commands
const (
	CommandStart   = "/start"
	CommandHelp    = "/help"
	CommandSummary = "/summary"
	CommandMissed  = "/missed"
	CommandAsk     = "/ask"
	CommandText    = "/text"
	CommandStats   = "/stats"
	CommandCleanup = "/cleanup"
	CommandReset   = "/reset"
	CommandInit    = "/init"
)

// Parse modes
const (
	ParseModeHTML = "html"
)

// Voice message prefix used when storing transcriptions in the archive
const VoiceMessagePrefix = "🎙️ Voice Message: "

// Usage errors for commands that need a reply anchor
const (
	ReplyRequiredSummary = `⚠️ <b>Reply required</b>

Reply to the message where you want the summary to start, then send /summary.
The summary covers everything from that message onwards.`

	ReplyRequiredMissed = `⚠️ <b>Reply required</b>

Reply to the message where you left off, then send /missed to get your personal action items from that point onwards.`

	ReplyRequiredAsk = `⚠️ <b>Reply required</b>

Reply to a message and then use /ask &lt;question&gt; to ask about the conversation from that point onwards.`

	QuestionRequiredAsk = `⚠️ <b>Question required</b>

Provide your question after the command.
Example: reply to a message and send <code>/ask What are my deadlines?</code>`

	ReplyRequiredText = `⚠️ <b>Voice message required</b>

Reply to a voice message (🎙️) and then send /text to transcribe it.`

	NotAVoiceMessage = "Please reply to a voice message to convert it to text."
)

// Generic failure replies; details go to the error log, not the chat.
const (
	ErrSummaryFailed    = "Sorry, I couldn't generate a summary right now."
	ErrMissedFailed     = "Sorry, I couldn't analyze missed items right now."
	ErrAskFailed        = "Sorry, I couldn't process your question right now."
	ErrTranscribeFailed = "Sorry, I couldn't transcribe the voice message. Please try again or check the audio quality."
	ErrStatsFailed      = "Error retrieving statistics."
	ErrCleanupFailed    = "Error during cleanup."
	ErrResetFailed      = "Error during reset operation."
	ErrInitFailed       = "❌ Error initializing storage."
)

const (
	NoMessagesToAnalyze = "No messages found to analyze from that point onwards."
	ProcessingVoice     = "🔄 Processing voice message, please wait..."
)
