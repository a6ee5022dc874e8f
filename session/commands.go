package session

import (
	"go.uber.org/zap"

	"github.com/luma/obnet/protocol"
)

// Join enqueues the login command. The color is 24-bit RGB as hex text,
// e.g. "ff0000".
func (s *Session) Join(nick, color string) {
	s.Enqueue(protocol.Login(nick, color))
}

// Say enqueues a chat message to the common chatroom.
func (s *Session) Say(text string) {
	s.Enqueue(protocol.Chat(text))
}

// Subscribe looks a document up by name and enqueues a subscription
// request keyed by its (creator id, local index). Silently does nothing
// when the document is unknown.
func (s *Session) Subscribe(name string) {
	doc := s.docs.ByName(name)
	if doc == nil {
		s.log.Debug("subscribe to unknown document", zap.String("name", name))
		return
	}

	s.Enqueue(protocol.Subscribe(doc.Creator, doc.Index))
}
