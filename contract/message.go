package contract

// Message is one incoming chat text message, independent of how it was delivered.
type Message struct {
	ChatID int64
	Text   string
}
