package notifications

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis channel layout. Personal notifications are per-user, moderation
// events fan out to staff dashboards, support tickets each get a room
// channel, and the global chat has a single firehose channel.
const (
	channelUserPrefix   = "notifications:user:"
	channelBroadcast    = "notifications:broadcast"
	channelModeration   = "moderation:events"
	channelTicketPrefix = "support:ticket:"
	channelGlobalChat   = "chat:global"
)

// Notifier publishes realtime payloads into Redis channels. A nil Redis
// client degrades every publish to a no-op so single-instance deployments
// without Redis still work, minus cross-instance fanout.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishBroadcast sends a notification payload to all connected users.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, channelBroadcast, payload).Err()
}

// PublishModerationEvent sends a moderation workflow event to staff
// dashboards.
func (n *Notifier) PublishModerationEvent(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, channelModeration, payload).Err()
}

// PublishTicketMessage sends a payload to a support ticket's room channel.
func (n *Notifier) PublishTicketMessage(ctx context.Context, ticketID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, TicketChannel(ticketID), payload).Err()
}

// PublishGlobalChat sends a payload to the global chat channel.
func (n *Notifier) PublishGlobalChat(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, channelGlobalChat, payload).Err()
}

// StartPatternSubscriber subscribes to the personal, broadcast, and
// moderation channels and calls onMessage for each incoming message.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	return n.subscribe(ctx, "PatternSubscriber", onMessage,
		channelUserPrefix+"*", channelBroadcast, channelModeration)
}

// StartSupportSubscriber subscribes to all support ticket room channels.
func (n *Notifier) StartSupportSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	return n.subscribe(ctx, "SupportSubscriber", onMessage, channelTicketPrefix+"*")
}

// StartGlobalChatSubscriber subscribes to the global chat channel.
func (n *Notifier) StartGlobalChatSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	return n.subscribe(ctx, "GlobalChatSubscriber", onMessage, channelGlobalChat)
}

func (n *Notifier) subscribe(ctx context.Context, name string, onMessage func(channel, payload string), patterns ...string) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, patterns...)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return channelUserPrefix + strconv.FormatUint(uint64(userID), 10)
}

// TicketChannel derives the Redis channel name for a support ticket room.
func TicketChannel(ticketID uint) string {
	return channelTicketPrefix + strconv.FormatUint(uint64(ticketID), 10)
}

// ParseTicketChannel extracts the ticket id from a room channel name.
func ParseTicketChannel(channel string) (uint, error) {
	var ticketID uint
	if _, err := fmt.Sscanf(channel, channelTicketPrefix+"%d", &ticketID); err != nil {
		return 0, fmt.Errorf("invalid ticket channel %q: %w", channel, err)
	}
	return ticketID, nil
}
