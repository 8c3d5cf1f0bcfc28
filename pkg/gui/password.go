package gui

import (
	"strings"
	"unicode/utf8"

	"github.com/awnumar/memguard"
)

const maxPasswordLength = 256

// passwordInput collects what is typed in the password popup inside locked
// memory. Nothing typed is ever held in a Go string.
type passwordInput struct {
	buffer *memguard.LockedBuffer
	length int
}

func newPasswordInput() *passwordInput {
	return &passwordInput{buffer: memguard.NewBuffer(maxPasswordLength)}
}

// add appends ch, unless the buffer is full
func (p *passwordInput) add(ch rune) {
	size := utf8.RuneLen(ch)
	if size < 0 || p.length+size > maxPasswordLength {
		return
	}
	utf8.EncodeRune(p.buffer.Bytes()[p.length:], ch)
	p.length += size
}

// backspace removes the last rune and zeroes its bytes
func (p *passwordInput) backspace() {
	if p.length == 0 {
		return
	}
	_, size := utf8.DecodeLastRune(p.buffer.Bytes()[:p.length])
	memguard.WipeBytes(p.buffer.Bytes()[p.length-size : p.length])
	p.length -= size
}

// bytes is the typed password. It aliases the locked buffer, so it is
// only valid until destroy.
func (p *passwordInput) bytes() []byte {
	return p.buffer.Bytes()[:p.length]
}

// masked is one '*' per typed rune
func (p *passwordInput) masked() string {
	if p == nil {
		return ""
	}
	return strings.Repeat("*", utf8.RuneCount(p.bytes()))
}

// destroy wipes and releases the buffer
func (p *passwordInput) destroy() {
	p.buffer.Destroy()
	p.length = 0
}
