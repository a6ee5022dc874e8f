package protocol_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/obnet/protocol"
)

var _ = Describe("Writer", func() {
	Describe("Login", func() {
		It("ends in \\n", func() {
			Expect(string(protocol.Login("alice", "ff0000"))).To(HaveSuffix("\n"))
		})

		It("builds the login command", func() {
			Expect(string(protocol.Login("alice", "ff0000"))).
				To(Equal("net6_client_login:alice:ff0000\n"))
		})

		It("escapes reserved characters in the nickname", func() {
			Expect(string(protocol.Login("a:b", "ffffff"))).
				To(Equal(`net6_client_login:a\db:ffffff` + "\n"))
		})
	})

	Describe("Pong", func() {
		It("builds the pong command", func() {
			Expect(string(protocol.Pong())).To(Equal("net6_pong\n"))
		})
	})

	Describe("EncryptionOK", func() {
		It("builds the encryption acceptance", func() {
			Expect(string(protocol.EncryptionOK())).To(Equal("net6_encryption_ok\n"))
		})
	})

	Describe("Subscribe", func() {
		It("keys the request by creator id and local index in hex", func() {
			Expect(string(protocol.Subscribe(5, 11))).
				To(Equal("obby_document:5 b:subscribe\n"))
		})
	})

	Describe("Chat", func() {
		It("builds the client form with no sender id", func() {
			Expect(string(protocol.Chat("hi there"))).To(Equal("obby_message:hi there\n"))
		})

		It("escapes the message text", func() {
			Expect(string(protocol.Chat("hello:world"))).
				To(Equal(`obby_message:hello\dworld` + "\n"))
		})
	})
})
