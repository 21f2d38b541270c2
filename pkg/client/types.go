package client

// ClientConfig holds configuration for the game client.
type ClientConfig struct {
	// ServerURL is the websocket endpoint, e.g. ws://host:8080/game-socket.
	ServerURL string
	// BaseURL is the HTTP API root, e.g. http://host:8080. Used by the
	// REST helpers only.
	BaseURL   string
	User      string
	GameID    string
	UserAgent string
}
