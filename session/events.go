package session

// EventKind tags a notification from the engine to its embedding
// application.
type EventKind int

const (
	// EventUserKnown: a user appeared in the sync catalog.
	EventUserKnown EventKind = iota + 1

	// EventUserJoined: a user logged in.
	EventUserJoined

	// EventUserParted: a user left; their record is retained.
	EventUserParted

	// EventDocumentKnown: a document appeared in the catalog or was
	// just created.
	EventDocumentKnown

	// EventDocumentOpening: a document's content transfer is starting.
	EventDocumentOpening

	// EventDocumentChunk: a decoded piece of document content arrived.
	EventDocumentChunk

	// EventChatMessage: a chat message arrived.
	EventChatMessage

	// EventDiagnostic: a human-readable engine diagnostic.
	EventDiagnostic
)

func (k EventKind) String() string {
	switch k {
	case EventUserKnown:
		return "UserKnown"
	case EventUserJoined:
		return "UserJoined"
	case EventUserParted:
		return "UserParted"
	case EventDocumentKnown:
		return "DocumentKnown"
	case EventDocumentOpening:
		return "DocumentOpening"
	case EventDocumentChunk:
		return "DocumentChunk"
	case EventChatMessage:
		return "ChatMessage"
	case EventDiagnostic:
		return "Diagnostic"
	default:
		return "Unknown"
	}
}

// Event is a tagged variant; each kind fills only the fields relevant
// to it.
type Event struct {
	Kind EventKind

	// User is the display name, for user and chat events.
	User string

	// Document is the document title, for document events.
	Document string

	// Message is free text: chat content, document content, or a
	// diagnostic line.
	Message string

	// Length is the announced byte length for DocumentOpening.
	Length int64
}

// Sink receives events synchronously from within Pump. It must not
// block and must not call back into the same session.
type Sink func(Event)

func UserKnownEvent(name string) Event {
	return Event{Kind: EventUserKnown, User: name}
}

func UserJoinedEvent(name string) Event {
	return Event{Kind: EventUserJoined, User: name}
}

func UserPartedEvent(name string) Event {
	return Event{Kind: EventUserParted, User: name}
}

func DocumentKnownEvent(name string) Event {
	return Event{Kind: EventDocumentKnown, Document: name}
}

func DocumentOpeningEvent(name string, length int64) Event {
	return Event{Kind: EventDocumentOpening, Document: name, Length: length}
}

func DocumentChunkEvent(name, text string) Event {
	return Event{Kind: EventDocumentChunk, Document: name, Message: text}
}

func ChatMessageEvent(user, text string) Event {
	return Event{Kind: EventChatMessage, User: user, Message: text}
}

func DiagnosticEvent(message string) Event {
	return Event{Kind: EventDiagnostic, Message: message}
}
