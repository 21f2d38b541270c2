package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/coder/websocket"

	cidpkg "github.com/mrader1248/happy-games/internal/cid"
	"github.com/mrader1248/happy-games/pkg/protocol"
)

// buildDialHeaders constructs the HTTP header map used for websocket.Dial.
// Extracted to allow unit testing of header propagation.
func buildDialHeaders(ctx context.Context, userAgent string) map[string][]string {
	headers := map[string][]string{"User-Agent": {userAgent}}
	cidpkg.AddHeaderFromContext(headers, ctx)
	return headers
}

// GameClient connects to a happy-games server, joins a game, and
// relays chat messages.
type GameClient struct {
	conn         *websocket.Conn
	config       ClientConfig
	connected    bool
	joined       bool
	eventHandler EventHandler
}

// EventHandler defines callbacks for handling server events.
type EventHandler interface {
	OnConnected()
	OnDisconnected()
	OnJoined()
	OnJoinRejected(message string)
	OnMessage(msg protocol.BroadcastMessage)
}

// DefaultEventHandler provides a basic implementation of EventHandler.
type DefaultEventHandler struct{}

func (h *DefaultEventHandler) OnConnected()                  { log.Printf("Connected to server") }
func (h *DefaultEventHandler) OnDisconnected()               { log.Printf("Disconnected from server") }
func (h *DefaultEventHandler) OnJoined()                     { log.Printf("Joined game") }
func (h *DefaultEventHandler) OnJoinRejected(message string) { log.Printf("Join rejected: %s", message) }
func (h *DefaultEventHandler) OnMessage(msg protocol.BroadcastMessage) {
	log.Printf("%s: %s", msg.User, msg.Text)
}

// NewGameClient creates a new game client.
func NewGameClient(config ClientConfig) *GameClient {
	if config.UserAgent == "" {
		config.UserAgent = "happy-games-client/1.0.0"
	}
	return &GameClient{
		config:       config,
		eventHandler: &DefaultEventHandler{},
	}
}

// SetEventHandler sets a custom event handler.
func (c *GameClient) SetEventHandler(handler EventHandler) {
	c.eventHandler = handler
}

// IsConnected returns whether the client is connected.
func (c *GameClient) IsConnected() bool {
	return c.connected
}

// Connect establishes the websocket connection.
func (c *GameClient) Connect(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.config.ServerURL, &websocket.DialOptions{
		HTTPHeader: buildDialHeaders(ctx, c.config.UserAgent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}

	c.conn = conn
	c.connected = true
	c.eventHandler.OnConnected()
	return nil
}

// Join sends the handshake frame and waits for the server's ack. A
// rejected handshake is reported through OnJoinRejected and returned
// as an error.
func (c *GameClient) Join(ctx context.Context) error {
	if !c.connected {
		return fmt.Errorf("client not connected")
	}

	req := protocol.HandshakeRequest{User: c.config.User, GameID: c.config.GameID}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal handshake: %w", err)
	}
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to send handshake: %w", err)
	}

	_, data, err = c.conn.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read handshake ack: %w", err)
	}
	var ack protocol.HandshakeAck
	if err := json.Unmarshal(data, &ack); err != nil {
		return fmt.Errorf("failed to unmarshal handshake ack: %w", err)
	}
	if ack.Status != protocol.StatusOK {
		c.eventHandler.OnJoinRejected(ack.Message)
		return fmt.Errorf("join rejected: %s", ack.Message)
	}

	c.joined = true
	c.eventHandler.OnJoined()
	return nil
}

// ConnectAndJoin dials the server and performs the join handshake.
func (c *GameClient) ConnectAndJoin(ctx context.Context) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Join(ctx)
}

// SendMessage broadcasts a chat message to the game.
func (c *GameClient) SendMessage(ctx context.Context, text string) error {
	return c.sendFrame(ctx, protocol.ClientFrame{
		Message: &protocol.ChatMessage{Text: text},
	})
}

// RequestDisconnect asks the server for a graceful removal from the
// game before the connection is closed.
func (c *GameClient) RequestDisconnect(ctx context.Context) error {
	return c.sendFrame(ctx, protocol.ClientFrame{
		Action: &protocol.Action{Todo: protocol.ActionDisconnect},
	})
}

// Disconnect closes the websocket connection.
func (c *GameClient) Disconnect() error {
	if c.conn != nil {
		c.connected = false
		c.joined = false
		err := c.conn.Close(websocket.StatusNormalClosure, "client disconnect")
		c.eventHandler.OnDisconnected()
		return err
	}
	return nil
}

// Listen reads broadcast deliveries until the context is canceled or
// the connection closes (blocking).
func (c *GameClient) Listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msgType, data, err := c.conn.Read(ctx)
			if err != nil {
				c.connected = false
				return fmt.Errorf("read error: %w", err)
			}
			if msgType != websocket.MessageText {
				continue
			}

			var msg protocol.BroadcastMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				log.Printf("Failed to unmarshal message: %v", err)
				continue
			}
			c.eventHandler.OnMessage(msg)
		}
	}
}

// sendFrame sends a JSON frame to the server.
func (c *GameClient) sendFrame(ctx context.Context, frame protocol.ClientFrame) error {
	if !c.connected {
		return fmt.Errorf("client not connected")
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}
	return c.conn.Write(ctx, websocket.MessageText, data)
}
