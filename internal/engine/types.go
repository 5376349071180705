package engine

// EventKind discriminates inbound conversation events. Button presses
// arrive as symbolic kinds rather than free text.
type EventKind int

const (
	// EventText is a free-text message from the user.
	EventText EventKind = iota
	// EventMore requests additional, non-duplicate recommendations.
	EventMore
	// EventRandom requests a random seed query within the current category.
	EventRandom
	// EventReset returns the user to category selection.
	EventReset
)

// String returns the kind label used in logs and metrics.
func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventMore:
		return "more"
	case EventRandom:
		return "random"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event is one inbound conversation event for one user.
type Event struct {
	// ID correlates log lines for a single event's processing.
	ID string
	// ChatID is the stable user identity supplied by the transport.
	ChatID int64
	// Kind is the event discriminator.
	Kind EventKind
	// Text carries the payload for EventText events.
	Text string
}

// Keyboard tells the transport which control set to attach to a reply.
type Keyboard int

const (
	// KeyboardNone attaches no controls and removes any visible keyboard.
	KeyboardNone Keyboard = iota
	// KeyboardCategories shows the category selection buttons.
	KeyboardCategories
	// KeyboardActions shows the more/random/menu buttons.
	KeyboardActions
)

// Reply is one outbound presentation instruction.
type Reply struct {
	Text     string
	Keyboard Keyboard
}
