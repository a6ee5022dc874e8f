package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Command names understood by the dispatcher. Matching is always on the
// whole name: `obby_sync` must never match `obby_sync_init`.
const (
	CmdWelcome         = "obby_welcome"
	CmdEncryption      = "net6_encryption"
	CmdEncryptionBegin = "net6_encryption_begin"
	CmdLoginFailed     = "net6_login_failed"
	CmdPing            = "net6_ping"
	CmdSyncInit        = "obby_sync_init"
	CmdClientJoin      = "net6_client_join"
	CmdClientPart      = "net6_client_part"
	CmdSyncUser        = "obby_sync_usertable_user"
	CmdSyncDocument    = "obby_sync_doclist_document"
	CmdDocumentCreate  = "obby_document_create"
	CmdSyncFinal       = "obby_sync_final"
	CmdMessage         = "obby_message"
	CmdDocument        = "obby_document"
)

// Sub-operations carried inside obby_document commands.
const (
	SubopSyncInit  = "sync_init"
	SubopSyncChunk = "sync_chunk"
	SubopSubscribe = "subscribe"
)

var (
	ErrBadHexField = errors.New("argument field is not valid hexadecimal")
)

// SplitLine separates a command line into its name and raw argument
// string. The split is at the first `:`; a line with no `:` has an empty
// argument string.
func SplitLine(line string) (name, args string) {
	if i := strings.IndexByte(line, ':'); i >= 0 {
		return line[:i], line[i+1:]
	}

	return line, ""
}

// Fields splits a raw argument string into its `:`-separated fields.
// Free-text fields are escaped on the wire, so a plain split is safe.
func Fields(args string) []string {
	return strings.Split(args, ":")
}

// ParseHex parses a numeric argument field. All numeric fields on the
// wire are hexadecimal text.
func ParseHex(field string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(field), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", field, ErrBadHexField)
	}

	return v, nil
}

// ParseHex32 parses a hex field that must fit in 32 bits: ids, colors,
// document indices. A wider value is malformed, never truncated.
func ParseHex32(field string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(field), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", field, ErrBadHexField)
	}

	return uint32(v), nil
}
