package protocol

import "fmt"

// Outbound command builders. Every builder returns a complete,
// newline-terminated line ready for the session's outbound buffer.

// Login builds the net6_client_login command sent after the handshake.
// The color is a 24-bit RGB value as lowercase hex text, e.g. "ff0000".
func Login(nick, color string) []byte {
	return []byte(fmt.Sprintf("net6_client_login:%s:%s\n", Escape(nick), color))
}

// Pong builds the reply to net6_ping.
func Pong() []byte {
	return []byte("net6_pong\n")
}

// EncryptionOK builds the acceptance reply to a net6_encryption request.
func EncryptionOK() []byte {
	return []byte("net6_encryption_ok\n")
}

// Subscribe builds a document subscription request keyed by the
// document's (creator id, local index).
func Subscribe(creator, index uint32) []byte {
	return []byte(fmt.Sprintf("obby_document:%x %x:%s\n", creator, index, SubopSubscribe))
}

// Chat builds the client form of obby_message, which carries no sender
// id. The text is escaped.
func Chat(text string) []byte {
	return []byte(fmt.Sprintf("obby_message:%s\n", Escape(text)))
}
