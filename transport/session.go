// Package transport owns the authenticated JSON-RPC session with the
// exchange: one persistent websocket, one in-flight request at a time,
// responses correlated by id.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SessionState tracks the connection lifecycle.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateAuthenticated
	StateClosed
)

// Credentials are the two opaque secrets consumed once at startup. They
// come from an external secret store; the session never persists them.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Session is a single authenticated duplex connection to the venue. All
// remote operations funnel through Call; the bot runs one cooperative
// flow, so calls are serialized rather than multiplexed.
type Session struct {
	conn *websocket.Conn
	log  *zap.Logger

	mu     sync.Mutex // serializes request/response round trips
	nextID atomic.Int64
	state  atomic.Int32

	closeOnce sync.Once
	closeErr  error

	// CallTimeout bounds a round trip when the caller's context carries
	// no deadline of its own.
	CallTimeout time.Duration
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Dial opens the websocket connection. The returned session is connected
// but not yet authenticated.
func Dial(ctx context.Context, url string, log *zap.Logger) (*Session, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnection, url, err)
	}
	log.Info("session connected", zap.String("url", url))
	return &Session{
		conn:        conn,
		log:         log,
		CallTimeout: 30 * time.Second,
	}, nil
}

// Authenticate performs the client_credentials grant. A response without
// an access token counts as a rejected login and is fatal for the run.
func (s *Session) Authenticate(ctx context.Context, creds Credentials) error {
	var res AuthResult
	err := s.Call(ctx, MethodAuth, AuthParams{
		GrantType:    "client_credentials",
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
	}, &res)
	if err != nil {
		return fmt.Errorf("%w: authenticate: %v", ErrConnection, err)
	}
	if res.AccessToken == "" {
		return fmt.Errorf("%w: authenticate: empty access token", ErrConnection)
	}
	s.state.Store(int32(StateAuthenticated))
	s.log.Info("session authenticated", zap.Int64("expires_in", res.ExpiresIn))
	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Call sends one request envelope and blocks until the response with the
// matching id arrives. Frames with other ids (late responses, subscription
// notifications) are skipped. A response carrying an error object, or one
// without a result, is returned as *RemoteError; result, when non-nil, is
// filled from the result field.
func (s *Session) Call(ctx context.Context, method string, params, result any) error {
	if s.State() == StateClosed {
		return ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID.Add(1)
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(s.CallTimeout)
	}

	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	req := request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("%w: send %s: %v", ErrConnection, method, err)
	}

	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("%w: receive %s: %v", ErrConnection, method, err)
		}
		var resp response
		if err := json.Unmarshal(frame, &resp); err != nil {
			s.log.Warn("discarding undecodable frame", zap.Error(err))
			continue
		}
		if resp.ID != id {
			// Not ours: a notification or a response to a call that
			// already timed out.
			s.log.Debug("skipping uncorrelated frame",
				zap.Int64("frame_id", resp.ID), zap.Int64("want_id", id))
			continue
		}
		if resp.Error != nil {
			return &RemoteError{Method: method, Code: resp.Error.Code, Message: resp.Error.Message}
		}
		if len(resp.Result) == 0 {
			return &RemoteError{Method: method, Message: "response carried no result"}
		}
		if result == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
		return nil
	}
}

// Close shuts the connection down. Safe to call from every exit path.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		s.closeErr = s.conn.Close()
		s.log.Info("session closed")
	})
	return s.closeErr
}
