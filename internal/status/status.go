// Package status renders a point-in-time JSON snapshot of a session for
// the debug HTTP endpoint.
package status

import (
	"github.com/tidwall/sjson"

	"github.com/luma/obnet/roster"
	"github.com/luma/obnet/session"
)

// Render builds the JSON document describing the session's state, flags
// and both registries.
func Render(sess *session.Session) ([]byte, error) {
	doc := []byte(`{}`)

	var err error

	if doc, err = sjson.SetBytes(doc, "state", sess.State().String()); err != nil {
		return nil, err
	}

	if doc, err = sjson.SetBytes(doc, "protocolVersion", sess.ProtocolVersion()); err != nil {
		return nil, err
	}

	if doc, err = sjson.SetBytes(doc, "encrypted", sess.Encrypted()); err != nil {
		return nil, err
	}

	if doc, err = sjson.SetBytes(doc, "users", []interface{}{}); err != nil {
		return nil, err
	}

	for _, user := range sess.Users() {
		entry := map[string]interface{}{
			"name":   user.Name,
			"joined": user.Joined(),
			"color":  user.Color,
		}
		if user.Joined() {
			entry["obbyId"] = user.ObbyID
		}

		if doc, err = sjson.SetBytes(doc, "users.-1", entry); err != nil {
			return nil, err
		}
	}

	if doc, err = sjson.SetBytes(doc, "documents", []interface{}{}); err != nil {
		return nil, err
	}

	for _, d := range sess.Documents() {
		if doc, err = sjson.SetBytes(doc, "documents.-1", documentEntry(d)); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func documentEntry(d roster.Document) map[string]interface{} {
	entry := map[string]interface{}{
		"name":        d.Name,
		"creator":     d.Creator,
		"index":       d.Index,
		"subscribers": d.Subscribers,
	}
	if d.Encoding != "" {
		entry["encoding"] = d.Encoding
	}

	return entry
}
