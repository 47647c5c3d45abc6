package gitter

import (
	"context"
	"fmt"
)

// RoomIDFromName maps a room name to its id. It fetches the full room
// list on every call and returns the first room, in server order, whose
// name matches exactly. No match, an empty list or a failed fetch all
// return an error wrapping ErrRoomNotFound.
func (c *Client) RoomIDFromName(ctx context.Context, name string) (string, error) {
	room, err := c.FindRoom(ctx, name)
	if err != nil {
		return "", err
	}
	return room.ID, nil
}

// FindRoom is RoomIDFromName returning the whole room.
func (c *Client) FindRoom(ctx context.Context, name string) (*Room, error) {
	var rooms []Room
	if err := c.transport.Get(ctx, "rooms").Decode(&rooms); err != nil {
		return nil, fmt.Errorf("resolving room %q: %w: %w", name, ErrRoomNotFound, err)
	}
	room, ok := firstRoomNamed(rooms, name)
	if !ok {
		return nil, fmt.Errorf("resolving room %q: %w", name, ErrRoomNotFound)
	}
	return room, nil
}

func firstRoomNamed(rooms []Room, name string) (*Room, bool) {
	for i := range rooms {
		if rooms[i].Name != name {
			continue
		}
		if rooms[i].ID == "" {
			return nil, false
		}
		return &rooms[i], true
	}
	return nil, false
}
