package live

// Message types carried on a snapshot websocket.
const (
	MessageSnapshot = "snapshot"
	MessageError    = "error"
)

// Message is the JSON frame exchanged over a snapshot websocket. Items is
// always present on snapshot frames, empty when no record matches.
type Message[T any] struct {
	Type  string `json:"type"`
	Seq   uint64 `json:"seq,omitempty"`
	Items []T    `json:"items"`
	Error string `json:"error,omitempty"`
}
