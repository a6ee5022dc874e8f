package session_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/obnet/roster"
	"github.com/luma/obnet/session"
)

var _ = Describe("session / dispatch", func() {
	Describe("the welcome/join/message scenario", func() {
		stream := func() *script {
			return &script{chunks: [][]byte{
				[]byte("obby_welcome:a\nnet6_client_join:3:alice:0:5:ff0000\nobby_message:5:hello\\dworld\n"),
			}}
		}

		It("records the protocol version", func() {
			f := stream()
			sess, _ := newScripted(f)
			pumpAll(sess, f)

			Expect(sess.ProtocolVersion()).To(Equal(10))
		})

		It("registers the joining user", func() {
			f := stream()
			sess, _ := newScripted(f)
			pumpAll(sess, f)

			users := sess.Users()
			Expect(users).To(HaveLen(1))
			Expect(users[0].Name).To(Equal("alice"))
			Expect(users[0].NetID).To(Equal(uint32(3)))
			Expect(users[0].ObbyID).To(Equal(uint32(5)))
			Expect(users[0].Color).To(Equal(uint32(0xff0000)))
		})

		It("emits a join event and the unescaped chat message", func() {
			f := stream()
			sess, events := newScripted(f)
			pumpAll(sess, f)

			Expect(*events).To(Equal([]session.Event{
				session.UserJoinedEvent("alice"),
				session.ChatMessageEvent("alice", "hello:world"),
			}))
		})
	})

	Describe("partial-line buffering", func() {
		full := []byte("obby_welcome:a\nnet6_client_join:3:alice:0:5:ff0000\nobby_message:5:hello\\dworld\n")

		It("produces the same events no matter where the stream is split", func() {
			oneShot := &script{chunks: [][]byte{full}}
			sess, want := newScripted(oneShot)
			pumpAll(sess, oneShot)

			for offset := 1; offset < len(full); offset++ {
				head := append([]byte(nil), full[:offset]...)
				tail := append([]byte(nil), full[offset:]...)

				split := &script{chunks: [][]byte{head, tail}}
				sess, got := newScripted(split)
				pumpAll(sess, split)

				Expect(*got).To(Equal(*want), fmt.Sprintf("split at offset %d", offset))
			}
		})
	})

	Describe("the sync exchange", func() {
		catalog := []string{
			"obby_sync_usertable_user:3:alice:ff0000\n",
			"obby_sync_usertable_user:4:bob:00ff00\n",
			"obby_sync_doclist_document:5:1:notes:2:UTF-8\n",
		}

		feed := func(announced int, records []string) *session.Session {
			data := fmt.Sprintf("obby_sync_init:%x\n", announced)
			for _, r := range records {
				data += r
			}
			data += "obby_sync_final\n"

			f := &script{chunks: [][]byte{[]byte(data)}}
			sess, _ := newScripted(f)
			pumpAll(sess, f)

			return sess
		}

		It("reaches Synced when the announced count matches", func() {
			sess := feed(3, catalog)

			Expect(sess.State()).To(Equal(session.StateSynced))
			Expect(sess.Users()).To(HaveLen(2))
			Expect(sess.Documents()).To(HaveLen(1))
		})

		It("faults when one record too few was announced", func() {
			Expect(feed(2, catalog).State()).To(Equal(session.StateError))
		})

		It("faults when one record too many was announced", func() {
			Expect(feed(4, catalog).State()).To(Equal(session.StateError))
		})

		It("moves to Joined and resets registries on sync_init", func() {
			f := &script{chunks: [][]byte{
				[]byte("net6_client_join:3:alice:0:5:ff0000\nobby_sync_init:0\n"),
			}}
			sess, _ := newScripted(f)
			pumpAll(sess, f)

			Expect(sess.State()).To(Equal(session.StateJoined))
			Expect(sess.Users()).To(BeEmpty())
		})
	})

	Describe("document records", func() {
		It("treats a re-announced key as an update, never a second entry", func() {
			f := &script{chunks: [][]byte{
				[]byte("obby_sync_doclist_document:5:1:old:1:UTF-8\n" +
					"obby_sync_doclist_document:5:1:new:2:UTF-8\n"),
			}}
			sess, events := newScripted(f)
			pumpAll(sess, f)

			docs := sess.Documents()
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Name).To(Equal("new"))
			Expect(*events).To(Equal([]session.Event{
				session.DocumentKnownEvent("old"),
				session.DocumentKnownEvent("new"),
			}))
		})

		It("accepts a creation notice without an encoding field", func() {
			f := &script{chunks: [][]byte{
				[]byte("obby_document_create:5:1:scratch:0\n"),
			}}
			sess, events := newScripted(f)
			pumpAll(sess, f)

			docs := sess.Documents()
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Encoding).To(Equal(""))
			Expect(*events).To(Equal([]session.Event{
				session.DocumentKnownEvent("scratch"),
			}))
		})
	})

	Describe("document sub-operations", func() {
		withDoc := func(rest string) (*session.Session, *[]session.Event) {
			f := &script{chunks: [][]byte{
				[]byte("obby_sync_doclist_document:5:1:notes:2:UTF-8\n" + rest),
			}}
			sess, events := newScripted(f)
			pumpAll(sess, f)

			return sess, events
		}

		It("emits DocumentOpening with the announced byte length", func() {
			_, events := withDoc("obby_document:5 1:sync_init:1f4\n")

			Expect(*events).To(Equal([]session.Event{
				session.DocumentKnownEvent("notes"),
				session.DocumentOpeningEvent("notes", 500),
			}))
		})

		It("strips the trailing tag and unescapes chunk content", func() {
			_, events := withDoc("obby_document:5 1:sync_chunk:hello\\dworld:2\n")

			Expect(*events).To(Equal([]session.Event{
				session.DocumentKnownEvent("notes"),
				session.DocumentChunkEvent("notes", "hello:world"),
			}))
		})

		It("ignores sub-operations for a document it never learned", func() {
			sess, events := withDoc("obby_document:9 9:sync_init:10\n")

			Expect(sess.State()).NotTo(Equal(session.StateError))
			Expect(*events).To(HaveLen(1))
		})

		It("ignores unknown sub-operations", func() {
			sess, events := withDoc("obby_document:5 1:frobnicate:stuff\n")

			Expect(sess.State()).NotTo(Equal(session.StateError))
			Expect(*events).To(HaveLen(1))
		})
	})

	Describe("joins and parts", func() {
		It("merges a join into a user already known by name", func() {
			f := &script{chunks: [][]byte{
				[]byte("obby_sync_usertable_user:3:alice:ff0000\n" +
					"net6_client_join:7:alice:1:5:00ff00\n"),
			}}
			sess, _ := newScripted(f)
			pumpAll(sess, f)

			users := sess.Users()
			Expect(users).To(HaveLen(1))
			Expect(users[0].NetID).To(Equal(uint32(7)))
			Expect(users[0].ObbyID).To(Equal(uint32(5)))
			Expect(users[0].Encrypted).To(BeTrue())
			// The color learned from the sync catalog is preserved.
			Expect(users[0].Color).To(Equal(uint32(0xff0000)))
		})

		It("marks a parted user as not joined but keeps the record", func() {
			f := &script{chunks: [][]byte{
				[]byte("net6_client_join:3:alice:0:5:ff0000\nnet6_client_part:3\n"),
			}}
			sess, events := newScripted(f)
			pumpAll(sess, f)

			users := sess.Users()
			Expect(users).To(HaveLen(1))
			Expect(users[0].ObbyID).To(Equal(roster.ObbyIDUnassigned))
			Expect((*events)[1]).To(Equal(session.UserPartedEvent("alice")))
		})

		It("faults on a part notice for an unknown user", func() {
			f := &script{chunks: [][]byte{[]byte("net6_client_part:3\n")}}
			sess, _ := newScripted(f)
			pumpAll(sess, f)

			Expect(sess.State()).To(Equal(session.StateError))
		})

		It("faults on a join with missing fields", func() {
			f := &script{chunks: [][]byte{[]byte("net6_client_join:3:alice\n")}}
			sess, _ := newScripted(f)
			pumpAll(sess, f)

			Expect(sess.State()).To(Equal(session.StateError))
		})

		It("faults on an id wider than 32 bits instead of truncating it", func() {
			// 0x100000003 must not alias the valid net6 id 3.
			f := &script{chunks: [][]byte{
				[]byte("net6_client_join:100000003:alice:0:5:ff0000\n"),
			}}
			sess, _ := newScripted(f)
			pumpAll(sess, f)

			Expect(sess.State()).To(Equal(session.StateError))
			Expect(sess.Users()).To(BeEmpty())
		})
	})

	Describe("chat", func() {
		It("faults on a message from an unknown sender", func() {
			f := &script{chunks: [][]byte{[]byte("obby_message:5:hi\n")}}
			sess, _ := newScripted(f)
			pumpAll(sess, f)

			Expect(sess.State()).To(Equal(session.StateError))
		})

		It("faults on a message with no field separator", func() {
			f := &script{chunks: [][]byte{[]byte("obby_message:5\n")}}
			sess, _ := newScripted(f)
			pumpAll(sess, f)

			Expect(sess.State()).To(Equal(session.StateError))
		})
	})

	Describe("unknown commands", func() {
		It("discards them without changing state or emitting events", func() {
			f := &script{chunks: [][]byte{
				[]byte("obby_sync:ff\nobby_welcome:8\n"),
			}}
			sess, events := newScripted(f)
			pumpAll(sess, f)

			Expect(sess.State()).To(Equal(session.StateOpen))
			Expect(*events).To(BeEmpty())
			// The line before it was still consumed and the one after
			// it still parsed.
			Expect(sess.ProtocolVersion()).To(Equal(8))
		})
	})

	Describe("pings", func() {
		It("replies with a pong", func() {
			f := &script{chunks: [][]byte{[]byte("net6_ping\n")}}
			sess, _ := newScripted(f)
			pumpAll(sess, f)

			Expect(string(f.wrote)).To(Equal("net6_pong\n"))
		})
	})

	Describe("encryption", func() {
		It("accepts a server encryption request", func() {
			f := &script{chunks: [][]byte{[]byte("net6_encryption:0\n")}}
			sess, _ := newScripted(f)
			pumpAll(sess, f)

			Expect(sess.State()).NotTo(Equal(session.StateError))
			Expect(string(f.wrote)).To(Equal("net6_encryption_ok\n"))
		})

		It("faults on any other encryption request", func() {
			f := &script{chunks: [][]byte{[]byte("net6_encryption:1\n")}}
			sess, _ := newScripted(f)
			pumpAll(sess, f)

			Expect(sess.State()).To(Equal(session.StateError))
		})

		It("upgrades to TLS and shakes hands on encryption_begin", func() {
			f := &script{chunks: [][]byte{[]byte("net6_encryption_begin\n")}}
			sess, events := newScripted(f)
			pumpAll(sess, f)

			Expect(f.tlsCalls).To(Equal(1))
			Expect(sess.State()).To(Equal(session.StateShookHands))
			Expect(sess.Encrypted()).To(BeTrue())
			Expect(*events).To(ContainElement(session.DiagnosticEvent("TLS handshake succeeded")))
		})

		It("faults when the handshake fails", func() {
			f := &script{
				chunks: [][]byte{[]byte("net6_encryption_begin\n")},
				tlsErr: errors.New("handshake refused"),
			}
			sess, _ := newScripted(f)
			pumpAll(sess, f)

			Expect(sess.State()).To(Equal(session.StateError))
			Expect(sess.Encrypted()).To(BeFalse())
		})
	})

	Describe("login failure", func() {
		It("faults the session", func() {
			f := &script{chunks: [][]byte{[]byte("net6_login_failed:3\n")}}
			sess, events := newScripted(f)
			pumpAll(sess, f)

			Expect(sess.State()).To(Equal(session.StateError))
			Expect(*events).NotTo(BeEmpty())
		})
	})

	Describe("registry overflow", func() {
		It("faults instead of overwriting when the roster is full", func() {
			data := ""
			for i := 0; i < roster.MaxUsers+1; i++ {
				data += fmt.Sprintf("obby_sync_usertable_user:%x:user%d:ffffff\n", i, i)
			}

			f := &script{chunks: [][]byte{[]byte(data)}}
			sess, _ := newScripted(f)
			pumpAll(sess, f)

			Expect(sess.State()).To(Equal(session.StateError))
			Expect(sess.Users()).To(HaveLen(roster.MaxUsers))
		})
	})
})
