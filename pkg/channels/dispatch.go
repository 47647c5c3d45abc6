package channels

import (
	"context"

	"github.com/tinyland-inc/gitterclaw/pkg/bus"
	"github.com/tinyland-inc/gitterclaw/pkg/logger"
)

// DispatchOutbound sends every outbound bus message addressed to ch (or
// to no channel in particular) until ctx is done or the bus closes.
// Failed sends are logged and skipped.
func DispatchOutbound(ctx context.Context, mb *bus.MessageBus, ch Channel) {
	for {
		msg, ok := mb.SubscribeOutbound(ctx)
		if !ok {
			return
		}
		if msg.Channel != "" && msg.Channel != ch.Name() {
			logger.DebugCF("channels", "Skipping message for another channel", map[string]any{
				"channel": msg.Channel,
			})
			continue
		}
		if err := ch.Send(ctx, msg); err != nil {
			logger.ErrorCF("channels", "Send failed", map[string]any{
				"channel": ch.Name(),
				"room_id": msg.RoomID,
				"error":   err.Error(),
			})
		}
	}
}
