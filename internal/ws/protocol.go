package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket/wsjson"

	"github.com/vanish-chat/vanish-backend/internal/domain"
	"github.com/vanish-chat/vanish-backend/internal/events"
)

// Inbound frame types accepted from clients. Anything else is rejected.
const (
	frameJoin        = "join"
	frameGroupJoin   = "group:join"
	frameTypingStart = events.TypeTypingStart
	frameTypingStop  = events.TypeTypingStop
)

// ErrUnknownFrame is returned for an inbound frame whose type is not part of
// the protocol.
var ErrUnknownFrame = errors.New("ws: unknown frame type")

// ErrBadFrame is returned for a known frame missing a required field.
var ErrBadFrame = errors.New("ws: malformed frame")

// Frame is the raw inbound envelope. Data is decoded per Type.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// JoinCommand subscribes the caller to the direct room shared with a friend.
type JoinCommand struct {
	FriendID string `json:"friendId"`
}

// GroupJoinCommand subscribes the caller to a group room.
type GroupJoinCommand struct {
	GroupID string `json:"groupId"`
}

// TypingStartCommand relays a typing indicator into a room.
type TypingStartCommand struct {
	ChatID   string `json:"chatId"`
	UserName string `json:"userName"`
}

// TypingStopCommand clears a typing indicator in a room.
type TypingStopCommand struct {
	ChatID string `json:"chatId"`
}

// DecodeFrame validates an inbound frame and returns its typed command.
func DecodeFrame(f Frame) (any, error) {
	switch f.Type {
	case frameJoin:
		var cmd JoinCommand
		if err := json.Unmarshal(f.Data, &cmd); err != nil || cmd.FriendID == "" {
			return nil, fmt.Errorf("%w: join requires friendId", ErrBadFrame)
		}
		return cmd, nil
	case frameGroupJoin:
		var cmd GroupJoinCommand
		if err := json.Unmarshal(f.Data, &cmd); err != nil || cmd.GroupID == "" {
			return nil, fmt.Errorf("%w: group:join requires groupId", ErrBadFrame)
		}
		return cmd, nil
	case frameTypingStart:
		var cmd TypingStartCommand
		if err := json.Unmarshal(f.Data, &cmd); err != nil || cmd.ChatID == "" {
			return nil, fmt.Errorf("%w: typing:start requires chatId", ErrBadFrame)
		}
		return cmd, nil
	case frameTypingStop:
		var cmd TypingStopCommand
		if err := json.Unmarshal(f.Data, &cmd); err != nil || cmd.ChatID == "" {
			return nil, fmt.Errorf("%w: typing:stop requires chatId", ErrBadFrame)
		}
		return cmd, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrame, f.Type)
	}
}

// Serve reads inbound frames for the client until the connection drops or
// ctx is cancelled, applying each command against the hub. Malformed frames
// are logged and skipped; the connection stays up.
func (h *Hub) Serve(ctx context.Context, c *Client) error {
	defer h.RemoveClient(c)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.Done():
			return nil
		default:
		}

		var f Frame
		if err := wsjson.Read(ctx, c.conn, &f); err != nil {
			return err
		}
		cmd, err := DecodeFrame(f)
		if err != nil {
			log.Debug().Err(err).Str("user_id", c.UserID).Msg("ws frame rejected")
			continue
		}
		h.apply(c, cmd)
	}
}

// apply executes one decoded command on behalf of the client.
func (h *Hub) apply(c *Client, cmd any) {
	switch cmd := cmd.(type) {
	case JoinCommand:
		h.Join(c, domain.RoomKey(c.UserID, cmd.FriendID))
	case GroupJoinCommand:
		h.Join(c, domain.GroupRoomKey(cmd.GroupID))
	case TypingStartCommand:
		name := cmd.UserName
		if name == "" {
			name = c.UserName
		}
		h.Dispatch(events.Event{
			Room: cmd.ChatID,
			Type: events.TypeTypingStart,
			Data: events.TypingStart{ChatID: cmd.ChatID, UserName: name},
		})
	case TypingStopCommand:
		h.Dispatch(events.Event{
			Room: cmd.ChatID,
			Type: events.TypeTypingStop,
			Data: events.TypingStop{ChatID: cmd.ChatID},
		})
	}
}
