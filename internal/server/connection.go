package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Connection is one WebSocket client. Requests are dispatched sequentially
// per connection; odds estimation runs in its own goroutine so a deep
// estimate never stalls the read loop.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Envelope
	games     *GameService
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewConnection wraps a websocket connection.
func NewConnection(conn *websocket.Conn, games *GameService, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:   conn,
		send:   make(chan *Envelope, 64),
		games:  games,
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the read and write pumps. onClose runs once when the
// connection ends.
func (c *Connection) Start(onClose func()) {
	go c.writePump()
	go func() {
		c.readPump()
		onClose()
	}()
}

// Close tears the connection down.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

func (c *Connection) readPump() {
	defer c.Close()
	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Unexpected close", "error", err)
			}
			return
		}
		c.dispatch(env)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case env := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Debug("Write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// dispatch routes one request envelope to the game service.
func (c *Connection) dispatch(env Envelope) {
	switch env.Type {
	case TypeCreateGame:
		handle(c, env, TypeGameCreated, c.games.CreateGame)
	case TypeCompleteHole:
		handle(c, env, TypeHoleSettled, c.games.CompleteHole)
	case TypeChoosePosition:
		handle(c, env, TypeRotationPlan, c.games.ChoosePosition)
	case TypeNextRotation:
		handle(c, env, TypeRotationPlan, c.games.NextRotation)
	case TypeNextWager:
		handle(c, env, TypeWagerInfo, c.games.NextWager)
	case TypeEstimateOdds:
		// Runs concurrently: cancelled with the connection, and never in
		// the way of settlement traffic.
		var req EstimateOddsRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			c.reply(TypeError, env.RequestID, NewErrorMsg(err))
			return
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			result, err := c.games.EstimateOdds(c.ctx, req)
			if err != nil {
				c.reply(TypeError, env.RequestID, NewErrorMsg(err))
				return
			}
			c.reply(TypeOddsResult, env.RequestID, result)
		}()
	default:
		c.reply(TypeError, env.RequestID, ErrorMsg{Message: "unknown message type " + env.Type})
	}
}

// handle decodes a request payload, invokes op and replies with the result
// or a structured error.
func handle[Req any, Resp any](c *Connection, env Envelope, respType string, op func(Req) (Resp, error)) {
	var req Req
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		c.reply(TypeError, env.RequestID, NewErrorMsg(err))
		return
	}
	result, err := op(req)
	if err != nil {
		c.reply(TypeError, env.RequestID, NewErrorMsg(err))
		return
	}
	c.reply(respType, env.RequestID, result)
}

func (c *Connection) reply(msgType, requestID string, payload any) {
	env, err := NewEnvelope(msgType, requestID, payload)
	if err != nil {
		c.logger.Error("Failed to build reply", "type", msgType, "error", err)
		return
	}
	select {
	case c.send <- env:
	case <-c.ctx.Done():
	}
}
