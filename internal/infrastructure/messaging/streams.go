package messaging

import "fmt"

// DefaultStreamMaxLen bounds each event stream when no limit is configured.
const DefaultStreamMaxLen int64 = 100000

// StreamKey names the Redis stream carrying one event type.
func StreamKey(eventType string) string {
	return fmt.Sprintf("events:%s", eventType)
}
