package mq

import (
	"context"
	"encoding/json"
	"log"

	"pawmart/models"
	"pawmart/rdx"
	"pawmart/utils"
)

// Channel carrying entity events (order-placed, adoption-resolved, ...).
const eventChannel = "pawmart-events"

// Emit publishes an entity event to Redis. Failures are logged, never fatal:
// the event stream is advisory and must not fail the request that emitted it.
func Emit(eventName string, content models.Event) {
	if rdx.Conn == nil {
		return
	}
	content.EventID = utils.GetUUID()
	data, err := json.Marshal(content)
	if err != nil {
		log.Printf("mq: failed to marshal %s event: %v", eventName, err)
		return
	}

	if err := rdx.Conn.Publish(context.Background(), eventChannel, data).Err(); err != nil {
		log.Printf("mq: failed to publish %s event: %v", eventName, err)
	}
}

// Sink receives relayed events; the live hub implements it.
type Sink interface {
	Broadcast(data []byte)
}

// StartEventRelay subscribes to the event channel and forwards every payload
// to the sink. Run it in its own goroutine.
func StartEventRelay(sink Sink) {
	ctx := context.Background()
	sub := rdx.Conn.Subscribe(ctx, eventChannel)
	ch := sub.Channel()

	log.Println("mq: event relay listening")

	for msg := range ch {
		sink.Broadcast([]byte(msg.Payload))
	}
}
