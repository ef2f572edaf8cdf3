package listener

import "github.com/trly/binary-driver/internal/execx"

// Listener observes process output. Implementations must be pointer types:
// a listener's identity is its registry key.
type Listener interface {
	Source
	// Handle receives one chunk of output read from channel.
	Handle(channel execx.Channel, chunk string)
	// ForwardedEvents lists the events re-emitted on the registration target.
	ForwardedEvents() []string
}
