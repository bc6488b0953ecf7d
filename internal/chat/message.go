package chat

// Sender tags who produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one immutable entry of the chat log.
type Message struct {
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
}

const (
	// WelcomeText seeds every new window.
	WelcomeText = "👋 Welcome to AI Commerce Chatbot! I can help you find the perfect products. Ask me about items, prices, ratings, or special offers!"
	// ErrorText is appended when the chatter returns an error.
	ErrorText = "Sorry, I encountered an error. Please try again."
)
