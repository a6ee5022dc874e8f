package protocol

// This package implements parsing and serialising for the obby/net6 wire
// protocol that obnet uses to talk to collaborative-editing servers.
//
// The protocol is plain ASCII text, one command per line:
//
//   ```
//   <command>:<arg>:<arg>:...\n
//   ```
//
// - lines are `\n` delimited
// - the command name is separated from its arguments by the first `:`
// - argument fields are separated by `:`
// - numeric fields are hexadecimal text
// - free-text fields (nicknames, chat messages, document content) are
//   escaped with the scheme below so they can safely contain `:`
//
// There are two families of commands, distinguished by prefix:
//
// - `net6_*` - the lower session-management layer: connection identity,
//              encryption, ping/pong.
// - `obby_*` - the application layer: users, documents, chat and the
//              post-login sync exchange.
//
// === Server to client
//
// - `obby_welcome:<version>` - first thing sent on connect
// - `net6_encryption:<0|1>` - peer asks to starttls (0 = server asked)
// - `net6_encryption_begin` - TLS handshake follows immediately
// - `net6_login_failed:<net6id>` - login was rejected
// - `net6_ping` - expects `net6_pong` back
// - `obby_sync_init:<count>` - sync exchange starts, <count> records follow
// - `net6_client_join:<net6id>:<name>:<enc>:<obbyid>:<color>`
// - `net6_client_part:<net6id>`
// - `obby_sync_usertable_user:<net6id>:<name>:<color>`
// - `obby_sync_doclist_document:<creator>:<index>:<name>:<nsubs>:<encoding>`
// - `obby_document_create` - same fields as the doclist record
// - `obby_sync_final` - sync exchange ends
// - `obby_message:<obbyid>:<text>` - chat
// - `obby_document:<creator> <index>:<subop>:<rest>` - per-document
//   sub-operations (`sync_init`, `sync_chunk`)
//
// === Client to server
//
// - `net6_client_login:<nick>:<color>`
// - `net6_encryption_ok`
// - `net6_pong`
// - `obby_message:<text>` - no sender id in the client form
// - `obby_document:<creator> <index>:subscribe`
//
// Unknown commands must be ignored, never treated as fatal: newer servers
// speak newer dialects.
//
// === Escaping
//
// Outbound free text replaces `\` with `\b` and `:` with `\d`. Inbound
// text additionally decodes `\n` to a literal newline even though we never
// produce it; the reference server does. A `\` not followed by one of
// `d`, `b`, `n` is not an escape introducer and passes through unchanged.
