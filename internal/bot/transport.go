package bot

// MenuOption is one inline button: a visible label and the callback data
// sent back when it is pressed.
type MenuOption struct {
	Label    string
	Callback string
}

// Transport is the outbound side of the chat platform. The orchestrator
// talks to it and nothing else; the Telegram binding lives behind it.
type Transport interface {
	SendText(chatID int64, text string) error
	SendMenu(chatID int64, text string, options []MenuOption) error
	EditText(chatID int64, messageID int, text string) error
	EditMenu(chatID int64, messageID int, text string, options []MenuOption) error
}
