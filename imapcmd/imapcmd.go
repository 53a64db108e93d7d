// Package imapcmd provides typed convenience builders on top of imapclient,
// translating method-style calls into imapclient.TaggedCommand values the
// way emersion's imapclient.Client method set does for its blocking API.
//
// Command construction (grammar for individual IMAP commands) is declared
// out of scope for the protocol engine's core; this package is the ambient
// layer that fills that gap without pulling response-content decoding back
// into the core.
package imapcmd

import (
	"fmt"

	"github.com/jefferyq2/go-imap-core/imapclient"
	"github.com/jefferyq2/go-imap-core/internal"
	"github.com/jefferyq2/go-imap-core/internal/imapwire"

	"github.com/jefferyq2/go-imap-core"
)

// Tagger issues client-chosen tags for outgoing commands. Callers typically
// keep one Tagger per connection.
type Tagger struct {
	n uint64
}

// Next returns the next tag, formatted the way the teacher's Client does
// ("T<n>").
func (t *Tagger) Next() string {
	t.n++
	return fmt.Sprintf("T%v", t.n)
}

// mailbox writes name as an astring, applying modified UTF-7 (RFC 3501
// section 5.1.3) to non-ASCII names, exactly as internal/imapwire.Encoder.Mailbox does.
func mailbox(enc *imapwire.Encoder, name string) {
	enc.Mailbox(name)
}

// Login builds a LOGIN command.
func Login(tag, username, password string) *imapclient.TaggedCommand {
	return &imapclient.TaggedCommand{
		Tag:  tag,
		Name: "LOGIN",
		Args: func(enc *imapwire.Encoder) {
			enc.String(username).SP().String(password)
		},
	}
}

// Select builds a SELECT command.
func Select(tag, name string) *imapclient.TaggedCommand {
	return &imapclient.TaggedCommand{
		Tag:  tag,
		Name: "SELECT",
		Args: func(enc *imapwire.Encoder) {
			mailbox(enc, name)
		},
	}
}

// Rename builds a RENAME command.
func Rename(tag, from, to string) *imapclient.TaggedCommand {
	return &imapclient.TaggedCommand{
		Tag:  tag,
		Name: "RENAME",
		Args: func(enc *imapwire.Encoder) {
			mailbox(enc, from)
			enc.SP()
			mailbox(enc, to)
		},
	}
}

// Store builds a STORE command that sets, adds, or removes flags on a
// sequence set of messages. op is one of "", "+", or "-".
func Store(tag string, seqSet imap.SeqSet, op string, flags []imap.Flag, silent bool) *imapclient.TaggedCommand {
	return &imapclient.TaggedCommand{
		Tag:  tag,
		Name: "STORE",
		Args: func(enc *imapwire.Encoder) {
			enc.NumSet(seqSet).SP()
			enc.Atom(op + "FLAGS")
			if silent {
				enc.Atom(".SILENT")
			}
			enc.SP()
			enc.List(len(flags), func(i int) {
				enc.Flag(string(flags[i]))
			})
		},
	}
}

// Idle builds an IDLE command. Its completion transitions the handler to
// ModeExpectingContinuations; call Done to end the session.
func Idle(tag string) *imapclient.TaggedCommand {
	return &imapclient.TaggedCommand{
		Tag:         tag,
		Name:        "IDLE",
		ChangesMode: true,
		EntersMode:  imapclient.ModeExpectingContinuations,
	}
}

// Done returns the sentinel that ends an IDLE session.
func Done() imapclient.IdleDone {
	return imapclient.IdleDone{}
}

// Authenticate builds an AUTHENTICATE command naming a SASL mechanism, with
// an optional SASL-IR initial response. Its completion transitions the
// handler to ModeExpectingContinuations; the mode reverts automatically
// once the tagged response for tag arrives.
func Authenticate(tag, mechanism string, initialResponse []byte, hasInitialResponse bool) *imapclient.TaggedCommand {
	return &imapclient.TaggedCommand{
		Tag:  tag,
		Name: "AUTHENTICATE",
		Args: func(enc *imapwire.Encoder) {
			enc.Atom(mechanism)
			if hasInitialResponse {
				enc.SP().Atom(internal.EncodeSASL(initialResponse))
			}
		},
		ChangesMode:           true,
		EntersMode:            imapclient.ModeExpectingContinuations,
		ExitsOnTaggedResponse: true,
	}
}
