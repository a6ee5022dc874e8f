package session

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/luma/obnet/protocol"
	"github.com/luma/obnet/roster"
)

var (
	ErrMalformedCommand  = errors.New("malformed command")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrLoginFailed       = errors.New("login rejected by server")
	ErrSyncMismatch      = errors.New("sync item count mismatch")
	ErrUnknownUser       = errors.New("unknown user")
	ErrUnknownSender     = errors.New("message from unknown sender")
)

// dispatch routes one complete command line. The command name is
// matched whole against the table: a prefix is never enough, and a name
// missing from the table is ignored so newer protocol dialects don't
// fault the session.
func (s *Session) dispatch(line string) {
	name, args := protocol.SplitLine(line)

	s.log.Debug("got command", zap.String("command", name))

	switch name {
	case protocol.CmdWelcome:
		s.handleWelcome(args)
	case protocol.CmdEncryption:
		s.handleEncryption(args)
	case protocol.CmdEncryptionBegin:
		s.handleEncryptionBegin()
	case protocol.CmdLoginFailed:
		s.handleLoginFailed(args)
	case protocol.CmdPing:
		s.handlePing()
	case protocol.CmdSyncInit:
		s.handleSyncInit(args)
	case protocol.CmdClientJoin:
		s.handleClientJoin(args)
	case protocol.CmdClientPart:
		s.handleClientPart(args)
	case protocol.CmdSyncUser:
		s.handleSyncUser(args)
	case protocol.CmdSyncDocument, protocol.CmdDocumentCreate:
		// A creation notice and a catalog record are the same thing to
		// the engine.
		s.handleSyncDocument(args)
	case protocol.CmdSyncFinal:
		s.handleSyncFinal()
	case protocol.CmdMessage:
		s.handleMessage(args)
	case protocol.CmdDocument:
		s.handleDocument(args)
	default:
		s.log.Debug("ignoring unknown command", zap.String("command", name))
	}
}

// obby_welcome: first command after connect; records the protocol
// version the server speaks.
func (s *Session) handleWelcome(args string) {
	v, err := protocol.ParseHex(protocol.Fields(args)[0])
	if err != nil {
		s.fault("malformed welcome", err)
		return
	}

	s.log.Debug("protocol version", zap.Uint64("version", v))
	s.proto = int(v)
}

// net6_encryption: the peer asks to starttls. A server request carries
// 0; anything else is invalid for a client session.
func (s *Session) handleEncryption(args string) {
	if protocol.Fields(args)[0] == "0" {
		s.log.Debug("server requests encryption")
		s.Enqueue(protocol.EncryptionOK())
		return
	}

	s.fault("invalid encryption request", ErrProtocolViolation)
}

// net6_encryption_begin: the TLS handshake follows immediately on the
// wire. On success the session has shaken hands.
func (s *Session) handleEncryptionBegin() {
	if err := s.stream.StartTLS(); err != nil {
		s.fault("TLS handshake failed", err)
		return
	}

	s.state = StateShookHands
	s.notify(DiagnosticEvent("TLS handshake succeeded"))
}

// net6_login_failed: the server rejected our login.
func (s *Session) handleLoginFailed(args string) {
	s.log.Warn("login failed", zap.String("args", args))
	s.fault("login rejected", ErrLoginFailed)
}

// net6_ping: sent after a minute of silence; expects a pong.
func (s *Session) handlePing() {
	s.Enqueue(protocol.Pong())
}

// obby_sync_init: the post-login catalog transfer starts. The argument
// is the number of user and document records that will follow.
func (s *Session) handleSyncInit(args string) {
	n, err := protocol.ParseHex(protocol.Fields(args)[0])
	if err != nil {
		s.fault("malformed sync init", err)
		return
	}

	s.log.Debug("sync exchange starting", zap.Uint64("items", n))

	s.state = StateJoined
	s.expected = int(n)
	s.users.Reset()
	s.docs.Reset()
}

// net6_client_join: a user logged in, either during the sync exchange
// or live. A user already known by name keeps their record; only the
// network id is merged in, then the join fields are applied.
func (s *Session) handleClientJoin(args string) {
	fields := strings.SplitN(args, ":", 5)
	if len(fields) != 5 {
		s.fault("malformed join command", ErrMalformedCommand)
		return
	}

	netID, err := protocol.ParseHex32(fields[0])
	if err != nil {
		s.fault("malformed join command", err)
		return
	}

	name := protocol.Unescape(fields[1])
	encrypted := fields[2] == "1"

	obbyID, err := protocol.ParseHex32(fields[3])
	if err != nil {
		s.fault("malformed join command", err)
		return
	}

	color, err := protocol.ParseHex32(fields[4])
	if err != nil {
		s.fault("malformed join command", err)
		return
	}

	user := s.users.ByName(name)
	if user != nil {
		user.NetID = netID
	} else {
		user = &roster.User{
			Name:   name,
			NetID:  netID,
			ObbyID: roster.ObbyIDUnassigned,
			Color:  color,
		}

		if err := s.users.Add(user); err != nil {
			s.fault("user roster overflow", err)
			return
		}
	}

	user.Encrypted = encrypted
	user.ObbyID = obbyID

	s.notify(UserJoinedEvent(user.Name))
}

// net6_client_part: a user left. The record is retained; only the
// application-layer identity is cleared.
func (s *Session) handleClientPart(args string) {
	netID, err := protocol.ParseHex32(protocol.Fields(args)[0])
	if err != nil {
		s.fault("malformed part command", err)
		return
	}

	user := s.users.ByNetID(netID)
	if user == nil {
		s.fault("part notice for a user that never existed", ErrUnknownUser)
		return
	}

	user.ObbyID = roster.ObbyIDUnassigned
	user.Encrypted = false

	s.notify(UserPartedEvent(user.Name))
}

// obby_sync_usertable_user: a catalog record for a known (not
// necessarily joined) user. No obby id yet.
func (s *Session) handleSyncUser(args string) {
	fields := strings.SplitN(args, ":", 3)
	if len(fields) != 3 {
		s.fault("malformed sync user record", ErrMalformedCommand)
		return
	}

	netID, err := protocol.ParseHex32(fields[0])
	if err != nil {
		s.fault("malformed sync user record", err)
		return
	}

	color, err := protocol.ParseHex32(fields[2])
	if err != nil {
		s.fault("malformed sync user record", err)
		return
	}

	user := &roster.User{
		Name:   protocol.Unescape(fields[1]),
		NetID:  netID,
		ObbyID: roster.ObbyIDUnassigned,
		Color:  color,
	}

	if err := s.users.Add(user); err != nil {
		s.fault("user roster overflow", err)
		return
	}

	s.notify(UserKnownEvent(user.Name))
}

// obby_sync_doclist_document / obby_document_create: a document record.
// The encoding field is absent from creation notices.
func (s *Session) handleSyncDocument(args string) {
	fields := strings.SplitN(args, ":", 5)
	if len(fields) < 4 {
		s.fault("malformed document record", ErrMalformedCommand)
		return
	}

	creator, err := protocol.ParseHex32(fields[0])
	if err != nil {
		s.fault("malformed document record", err)
		return
	}

	index, err := protocol.ParseHex32(fields[1])
	if err != nil {
		s.fault("malformed document record", err)
		return
	}

	subscribers, err := protocol.ParseHex32(fields[3])
	if err != nil {
		s.fault("malformed document record", err)
		return
	}

	doc := &roster.Document{
		Name:        protocol.Unescape(fields[2]),
		Creator:     creator,
		Index:       index,
		Subscribers: subscribers,
	}
	if len(fields) == 5 {
		doc.Encoding = fields[4]
	}

	if err := s.docs.Put(doc); err != nil {
		s.fault("document catalog overflow", err)
		return
	}

	s.notify(DocumentKnownEvent(doc.Name))
}

// obby_sync_final: the catalog transfer ends. The announced item count
// must match exactly what we learned since sync_init.
func (s *Session) handleSyncFinal() {
	got := s.users.Len() + s.docs.Len()

	if s.expected != got {
		s.log.Warn("sync accounting failed",
			zap.Int("expected", s.expected),
			zap.Int("received", got))
		s.fault("sync item count mismatch", ErrSyncMismatch)
		return
	}

	s.state = StateSynced
	s.expected = 0
}

// obby_message: chat from the server always carries the sender's obby
// id before the escaped text.
func (s *Session) handleMessage(args string) {
	if args == "" {
		s.fault("malformed message", ErrMalformedCommand)
		return
	}

	i := strings.IndexByte(args, ':')
	if i < 0 {
		s.fault("malformed message", ErrMalformedCommand)
		return
	}

	senderID, err := protocol.ParseHex32(args[:i])
	if err != nil {
		s.fault("malformed message", err)
		return
	}

	sender := s.users.ByObbyID(senderID)
	if sender == nil {
		s.fault("message from unknown sender", ErrUnknownSender)
		return
	}

	s.notify(ChatMessageEvent(sender.Name, protocol.Unescape(args[i+1:])))
}

// obby_document: per-document sub-operations. The leading field is the
// document key as "<creator> <index>"; a key we never learned is not a
// fault, the catalog may legitimately not include every document.
func (s *Session) handleDocument(args string) {
	i := strings.IndexByte(args, ':')
	if i < 0 {
		s.fault("malformed document command", ErrMalformedCommand)
		return
	}

	key := strings.Fields(args[:i])
	if len(key) != 2 {
		s.fault("malformed document key", ErrMalformedCommand)
		return
	}

	creator, err := protocol.ParseHex32(key[0])
	if err != nil {
		s.fault("malformed document key", err)
		return
	}

	index, err := protocol.ParseHex32(key[1])
	if err != nil {
		s.fault("malformed document key", err)
		return
	}

	subop := args[i+1:]
	rest := ""
	if j := strings.IndexByte(subop, ':'); j >= 0 {
		subop, rest = subop[:j], subop[j+1:]
	}

	doc := s.docs.ByKey(creator, index)
	if doc == nil {
		s.log.Debug("sub-operation for unknown document",
			zap.Uint32("creator", creator),
			zap.Uint32("index", index),
			zap.String("subop", subop))
		return
	}

	switch subop {
	case protocol.SubopSyncInit:
		length, err := protocol.ParseHex(protocol.Fields(rest)[0])
		if err != nil {
			s.fault("malformed document sync init", err)
			return
		}

		s.notify(DocumentOpeningEvent(doc.Name, int64(length)))

	case protocol.SubopSyncChunk:
		// The chunk carries a trailing numeric tag after the final ':'.
		j := strings.LastIndexByte(rest, ':')
		if j < 0 {
			s.fault("malformed document chunk", ErrMalformedCommand)
			return
		}

		s.notify(DocumentChunkEvent(doc.Name, protocol.Unescape(rest[:j])))

	default:
		s.log.Debug("ignoring unknown document sub-operation",
			zap.String("subop", subop))
	}
}
