package data

import (
	"context"
	"time"

	"friday/internal/biz/domain"
	"friday/internal/biz/repo"
	"friday/internal/infra/matrix"
)

// matrixRepo implements the ChatRepo interface over the Matrix client
type matrixRepo struct {
	client *matrix.Client
}

// NewMatrixRepo creates a Matrix-backed chat repository
func NewMatrixRepo(client *matrix.Client) repo.ChatRepo {
	return &matrixRepo{client: client}
}

// Login authenticates against the homeserver
func (r *matrixRepo) Login(ctx context.Context) (*repo.Identity, error) {
	result, err := r.client.Login(ctx)
	if err != nil {
		return nil, err
	}
	return &repo.Identity{
		UserID:      result.UserID,
		DeviceID:    result.DeviceID,
		AccessToken: result.AccessToken,
	}, nil
}

// FetchMessages returns room messages strictly after since, oldest first.
// The transport delivers reverse-chronological pages; all pages are
// drained first, then the cutoff is applied and the order reversed.
func (r *matrixRepo) FetchMessages(ctx context.Context, roomID string, since time.Time, limit int) ([]domain.Message, error) {
	events, err := r.client.Messages(ctx, roomID, limit, limit)
	if err != nil {
		return nil, err
	}

	// events are newest first; walk backwards to build ascending order
	var messages []domain.Message
	for i := len(events) - 1; i >= 0; i-- {
		msg := toMessage(roomID, events[i])
		if !since.IsZero() && !msg.Timestamp.After(since) {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// LastMessage returns the most recent message in the room, or nil
func (r *matrixRepo) LastMessage(ctx context.Context, roomID string) (*domain.Message, error) {
	events, err := r.client.Messages(ctx, roomID, 10, 1)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	msg := toMessage(roomID, events[0])
	return &msg, nil
}

// SendMessage sends a plain-text message
func (r *matrixRepo) SendMessage(ctx context.Context, roomID, body string) (string, error) {
	return r.client.Send(ctx, roomID, body)
}

// DisplayName resolves a user's display name, best-effort
func (r *matrixRepo) DisplayName(ctx context.Context, userID string) (string, error) {
	return r.client.UserDisplayName(ctx, userID)
}

// ListRooms returns the homeserver room directory
func (r *matrixRepo) ListRooms(ctx context.Context) ([]repo.DirectoryRoom, error) {
	infos, err := r.client.AdminRooms(ctx)
	if err != nil {
		return nil, err
	}

	rooms := make([]repo.DirectoryRoom, 0, len(infos))
	for _, info := range infos {
		room := repo.DirectoryRoom{
			RoomID:      info.RoomID,
			Name:        info.Name,
			Creator:     info.Creator,
			MemberCount: info.JoinedMembers,
		}
		if info.CreationTS > 0 {
			room.CreatedAt = time.UnixMilli(info.CreationTS)
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func toMessage(roomID string, ev matrix.Event) domain.Message {
	return domain.Message{
		EventID:   ev.EventID,
		RoomID:    roomID,
		Sender:    ev.Sender,
		Body:      ev.Content.Body,
		MsgType:   ev.Content.MsgType,
		Timestamp: time.UnixMilli(ev.OriginServerTS),
	}
}
