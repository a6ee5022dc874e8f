package protocol_test

import (
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/obnet/protocol"
)

var _ = Describe("Command lines", func() {
	Describe("SplitLine()", func() {
		It("splits at the first colon", func() {
			name, args := protocol.SplitLine("obby_welcome:8")
			Expect(name).To(Equal("obby_welcome"))
			Expect(args).To(Equal("8"))
		})

		It("keeps later colons inside the argument string", func() {
			name, args := protocol.SplitLine("net6_client_join:3:alice:0:5:ff0000")
			Expect(name).To(Equal("net6_client_join"))
			Expect(args).To(Equal("3:alice:0:5:ff0000"))
		})

		It("returns an empty argument string for a line with no colon", func() {
			name, args := protocol.SplitLine("net6_ping")
			Expect(name).To(Equal("net6_ping"))
			Expect(args).To(Equal(""))
		})
	})

	Describe("ParseHex()", func() {
		It("parses hexadecimal fields", func() {
			Expect(protocol.ParseHex("a")).To(Equal(uint64(10)))
			Expect(protocol.ParseHex("ff0000")).To(Equal(uint64(0xff0000)))
		})

		It("rejects non-hexadecimal fields", func() {
			_, err := protocol.ParseHex("zz")
			Expect(errors.Is(err, protocol.ErrBadHexField)).To(BeTrue())
		})

		It("rejects empty fields", func() {
			_, err := protocol.ParseHex("")
			Expect(errors.Is(err, protocol.ErrBadHexField)).To(BeTrue())
		})
	})

	Describe("ParseHex32()", func() {
		It("parses identifier-sized fields", func() {
			Expect(protocol.ParseHex32("ffffffff")).To(Equal(uint32(0xffffffff)))
		})

		It("rejects fields wider than 32 bits instead of truncating", func() {
			_, err := protocol.ParseHex32("100000003")
			Expect(errors.Is(err, protocol.ErrBadHexField)).To(BeTrue())
		})
	})
})
