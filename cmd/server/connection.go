package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"

	"github.com/mrader1248/happy-games/internal/game"
	"github.com/mrader1248/happy-games/internal/state"
	"github.com/mrader1248/happy-games/internal/types"
	"github.com/mrader1248/happy-games/pkg/protocol"
)

const defaultSendBuffer = 256

// ConnectionManager owns one websocket connection after a successful
// handshake: it relays inbound chat frames to the game's broadcast and
// tears down roster and registry state when the connection ends.
type ConnectionManager struct {
	wsConn       *types.WebSocketConnection
	player       *game.Player
	game         *game.Game
	gameID       string
	user         string
	stateManager *state.Manager
	done         chan struct{}
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The request context is unreliable after the hijack; the
	// connection's own closure ends the read loop.
	ctx := context.Background()
	cm, ok := s.acceptPlayer(ctx, conn)
	if !ok {
		return
	}
	cm.run(ctx)
}

// acceptPlayer performs the join handshake: it reads exactly one
// handshake frame, validates it, and hands admission to the state
// manager, which resolves the game, enforces the one-game-per-user
// rule, and reattaches or inserts the roster entry atomically.
// Rejections are acknowledged on the socket; the caller only proceeds
// when ok is true.
func (s *Server) acceptPlayer(ctx context.Context, conn *websocket.Conn) (*ConnectionManager, bool) {
	msgType, data, err := conn.Read(ctx)
	if err != nil {
		log.Printf("connection closed before handshake: %v", err)
		return nil, false
	}
	var req protocol.HandshakeRequest
	if msgType != websocket.MessageText || json.Unmarshal(data, &req) != nil {
		rejectHandshake(ctx, conn, protocol.MsgNoArguments)
		return nil, false
	}
	if req.User == "" {
		rejectHandshake(ctx, conn, protocol.MsgNoUser)
		return nil, false
	}
	if req.GameID == "" {
		rejectHandshake(ctx, conn, protocol.MsgNoGameID)
		return nil, false
	}

	bufSize := s.cfg.SendBufferSize
	if bufSize <= 0 {
		bufSize = defaultSendBuffer
	}
	wsConn := &types.WebSocketConnection{
		Conn: conn,
		User: req.User,
		Send: make(chan []byte, bufSize),
	}

	entry, player, err := s.stateManager.JoinGame(req.User, req.GameID, wsConn)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrGameNotFound):
			rejectHandshake(ctx, conn, protocol.MsgInvalidGameID)
		case errors.Is(err, state.ErrUserInAnotherGame):
			rejectHandshake(ctx, conn, protocol.MsgUserInOtherGame)
		default:
			rejectHandshake(ctx, conn, protocol.MsgCouldNotJoinGame)
		}
		return nil, false
	}
	g := entry.Game

	cm := &ConnectionManager{
		wsConn:       wsConn,
		player:       player,
		game:         g,
		gameID:       req.GameID,
		user:         req.User,
		stateManager: s.stateManager,
		done:         make(chan struct{}),
	}

	s.stateManager.AddClient(req.User, wsConn)
	go cm.writePump()

	// The ack is queued ahead of the replay, so the write pump emits
	// ack, then history, then live traffic.
	ack, _ := json.Marshal(protocol.HandshakeAck{Status: protocol.StatusOK})
	wsConn.QueueFrame(ack)
	g.ReplayHistory(player)

	log.Printf("user %s connected to game %s", req.User, req.GameID)
	return cm, true
}

func rejectHandshake(ctx context.Context, conn *websocket.Conn, msg string) {
	ack, err := json.Marshal(protocol.HandshakeAck{Status: protocol.StatusError, Message: msg})
	if err != nil {
		return
	}
	if err := conn.Write(ctx, websocket.MessageText, ack); err != nil {
		log.Printf("failed to write handshake rejection: %v", err)
	}
}

// run is the per-connection read loop. Malformed frames are logged and
// skipped; an explicit disconnect action and an abrupt transport
// closure both end the loop and run the same cleanup.
func (cm *ConnectionManager) run(ctx context.Context) {
	defer cm.cleanup()

	for {
		msgType, data, err := cm.wsConn.Conn.Read(ctx)
		if err != nil {
			log.Printf("user %s closed connection: %v", cm.user, err)
			return
		}
		if msgType != websocket.MessageText {
			log.Printf("ignoring non-text frame from user %s", cm.user)
			continue
		}

		var frame protocol.ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("malformed frame from user %s: %v", cm.user, err)
			continue
		}

		switch {
		case frame.Message != nil:
			if frame.Message.Text == "" {
				continue
			}
			cm.game.Broadcast(frame.Message.Text, cm.user)
		case frame.Action != nil:
			if frame.Action.Todo == protocol.ActionDisconnect {
				log.Printf("user %s requested disconnect", cm.user)
				return
			}
			log.Printf("unknown action %q from user %s", frame.Action.Todo, cm.user)
		default:
			log.Printf("frame from user %s carries neither message nor action", cm.user)
		}
	}
}

// cleanup detaches the transport and removes the player from roster
// and registries. When a reconnect has already attached a newer
// transport to the player, only this connection's bookkeeping is
// dropped and the membership stays. LeaveGame re-checks the attachment
// under the registry lock, so a reconnect landing between the detach
// and the departure keeps the membership as well.
func (cm *ConnectionManager) cleanup() {
	close(cm.done)
	cm.stateManager.RemoveClient(cm.user, cm.wsConn)
	if cm.player.Detach(cm.wsConn) {
		cm.stateManager.LeaveGame(cm.user, cm.gameID)
	}
}

// writePump drains the send channel onto the websocket. It exits on
// write failure or when the read loop finishes.
func (cm *ConnectionManager) writePump() {
	ctx := context.Background()
	for {
		select {
		case frame := <-cm.wsConn.Send:
			if err := cm.wsConn.Conn.Write(ctx, websocket.MessageText, frame); err != nil {
				log.Printf("write error for user %s: %v", cm.user, err)
				return
			}
		case <-cm.done:
			return
		}
	}
}
