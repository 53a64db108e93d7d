package imapwire

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/jefferyq2/go-imap-core/internal/utf7"
)

// An Encoder builds an IMAP command as an ordered list of byte chunks.
//
// Chunks are separated by synchronising-literal boundaries: whenever an
// argument requires a literal, the chunk in progress is closed right after
// the "{N}\r\n" announcement, and a new chunk is opened starting with the
// literal's raw payload. Everything else behaves like a conventional
// streaming encoder: most methods return the Encoder so calls can be
// chained, and errors are deferred until CRLF is called.
//
// A zero Encoder is ready to use.
type Encoder struct {
	// QuotedUTF8 allows non-ASCII strings to be encoded as quoted strings.
	// This requires IMAP4rev2.
	QuotedUTF8 bool
	// LiteralMinus enables non-synchronizing literals for payloads of at
	// most 4096 bytes. This requires LITERAL- (or IMAP4rev2).
	LiteralMinus bool
	// LiteralPlus enables non-synchronizing literals for all payloads.
	// This requires LITERAL+.
	LiteralPlus bool

	chunks [][]byte
	cur    bytes.Buffer
	err    error
}

func (enc *Encoder) setErr(err error) {
	if enc.err == nil {
		enc.err = err
	}
}

func (enc *Encoder) writeString(s string) *Encoder {
	if enc.err != nil {
		return enc
	}
	enc.cur.WriteString(s)
	return enc
}

func (enc *Encoder) writeBytes(b []byte) *Encoder {
	if enc.err != nil {
		return enc
	}
	enc.cur.Write(b)
	return enc
}

// endChunk closes the chunk in progress and starts a new, empty one.
func (enc *Encoder) endChunk() {
	buf := make([]byte, enc.cur.Len())
	copy(buf, enc.cur.Bytes())
	enc.chunks = append(enc.chunks, buf)
	enc.cur.Reset()
}

// CRLF terminates the command: it writes a trailing "\r\n" and returns the
// full ordered list of chunks built so far, along with any deferred error.
//
// Per the synchronising-literal invariant, the final chunk always ends with
// "\r\n".
func (enc *Encoder) CRLF() ([][]byte, error) {
	enc.writeString("\r\n")
	if enc.err != nil {
		return nil, enc.err
	}
	enc.endChunk()
	return enc.chunks, nil
}

func (enc *Encoder) Atom(s string) *Encoder {
	return enc.writeString(s)
}

// Raw writes b verbatim, with no quoting, escaping, or literal framing. It
// is meant for payloads whose framing is decided by the caller, such as a
// SASL continuation response.
func (enc *Encoder) Raw(b []byte) *Encoder {
	return enc.writeBytes(b)
}

func (enc *Encoder) SP() *Encoder {
	return enc.writeString(" ")
}

func (enc *Encoder) Special(ch byte) *Encoder {
	return enc.writeString(string(ch))
}

func (enc *Encoder) Quoted(s string) *Encoder {
	var sb strings.Builder
	sb.Grow(2 + len(s))
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '"' || ch == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(ch)
	}
	sb.WriteByte('"')
	return enc.writeString(sb.String())
}

// String encodes s as an IMAP "string": quoted whenever that's legal,
// literal otherwise. This is the tie-break rule from RFC 3501 section 4.3:
// quoted form is preferred, literal form is used only when quoted is not
// legal.
func (enc *Encoder) String(s string) *Encoder {
	return enc.AString(s, false)
}

// AString encodes s the way String does, except that when nonEmpty is set an
// empty s is encoded as a literal ("{0}\r\n") rather than an empty quoted
// string, for grammar contexts that require a non-empty astring (e.g.
// mailbox names).
func (enc *Encoder) AString(s string, nonEmpty bool) *Encoder {
	if (nonEmpty && s == "") || !enc.validQuoted(s) {
		enc.stringLiteral(s)
		return enc
	}
	return enc.Quoted(s)
}

// validQuoted reports whether s may be represented as a quoted string: no
// reserved octets (NUL, CR, LF, or non-ASCII unless QuotedUTF8 is set) and
// within the conventional quoted-string length ceiling.
func (enc *Encoder) validQuoted(s string) bool {
	if len(s) > 4096 {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case 0, '\r', '\n':
			return false
		}
		if !enc.QuotedUTF8 && ch > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// stringLiteral writes the literal announcement and, if the literal is
// synchronising, closes the current chunk so the payload starts a new one.
func (enc *Encoder) stringLiteral(s string) {
	nonSync := enc.LiteralPlus || (enc.LiteralMinus && len(s) <= 4096)

	enc.writeString("{")
	enc.writeString(strconv.Itoa(len(s)))
	if nonSync {
		enc.writeString("+")
	}
	enc.writeString("}\r\n")
	if enc.err != nil {
		return
	}

	if !nonSync {
		enc.endChunk()
	}
	enc.writeBytes([]byte(s))
}

func (enc *Encoder) Mailbox(name string) *Encoder {
	if strings.EqualFold(name, "INBOX") {
		return enc.Atom("INBOX")
	}
	encoded, err := utf7.Encoding.NewEncoder().String(name)
	if err != nil {
		enc.setErr(fmt.Errorf("imapwire: cannot encode mailbox name: %w", err))
		return enc
	}
	return enc.AString(encoded, true)
}

func (enc *Encoder) Number(v uint32) *Encoder {
	return enc.writeString(strconv.FormatUint(uint64(v), 10))
}

func (enc *Encoder) Number64(v int64) *Encoder {
	return enc.writeString(strconv.FormatInt(v, 10))
}

// NumSet writes a sequence set or UID set. s.String() must be non-empty.
func (enc *Encoder) NumSet(s fmt.Stringer) *Encoder {
	str := s.String()
	if str == "" {
		enc.setErr(fmt.Errorf("imapwire: cannot encode empty sequence set"))
		return enc
	}
	return enc.writeString(str)
}

func (enc *Encoder) Flag(flag string) *Encoder {
	if flag != "\\*" && !isValidFlag(flag) {
		enc.setErr(fmt.Errorf("imapwire: invalid flag %q", flag))
		return enc
	}
	return enc.writeString(flag)
}

// isValidFlag checks whether s satisfies flag-keyword / flag-extension.
func isValidFlag(s string) bool {
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\\' {
			if i != 0 {
				return false
			}
		} else if !IsAtomChar(ch) {
			return false
		}
	}
	return len(s) > 0
}

// List writes a parenthesized, space-separated list of n items.
func (enc *Encoder) List(n int, f func(i int)) *Encoder {
	enc.Special('(')
	for i := 0; i < n; i++ {
		if i > 0 {
			enc.SP()
		}
		f(i)
	}
	enc.Special(')')
	return enc
}

func (enc *Encoder) NIL() *Encoder {
	return enc.Atom("NIL")
}
