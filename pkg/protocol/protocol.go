// Package protocol defines the JSON wire shapes and status strings
// shared between client and server.
package protocol

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Error messages returned by the HTTP API and the websocket handshake.
const (
	MsgNoArguments       = "no arguments supplied"
	MsgNoUser            = "no user supplied"
	MsgNoEngineName      = "no engine name supplied"
	MsgNoGameID          = "no game id supplied"
	MsgInvalidGameID     = "invalid game id"
	MsgUserAlreadyInGame = "user already joined a game"
	MsgUserInOtherGame   = "user already joined another game"
	MsgCouldNotJoinGame  = "could not join game"
	MsgInternalError     = "internal error"
)

// Disconnect is the only action a client can request so far.
const ActionDisconnect = "disconnect"

// HandshakeRequest is the first frame a client sends after connecting.
type HandshakeRequest struct {
	User   string `json:"user"`
	GameID string `json:"game-id"`
}

// HandshakeAck is the server's answer to a HandshakeRequest.
type HandshakeAck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ChatMessage carries outbound chat text.
type ChatMessage struct {
	Text string `json:"text"`
}

// Action carries a client intent that is not a chat message.
type Action struct {
	Todo string `json:"todo"`
}

// ClientFrame is any frame a client sends after the handshake. Exactly
// one of the fields is expected to be set; frames with neither are
// ignored.
type ClientFrame struct {
	Message *ChatMessage `json:"message,omitempty"`
	Action  *Action      `json:"action,omitempty"`
}

// BroadcastMessage is the frame the server pushes for every broadcast
// delivery, replayed history included.
type BroadcastMessage struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	User string `json:"user"`
}

// CreateGameRequest is the body of POST /game.
type CreateGameRequest struct {
	User       string `json:"user"`
	EngineName string `json:"engine-name"`
}
