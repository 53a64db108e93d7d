package imapclient

import "github.com/jefferyq2/go-imap-core/internal/imapwire"

// Command is an item the application submits to a Handler.
//
// There are exactly three variants, each a concrete type rather than a
// member of a class hierarchy: TaggedCommand, IdleDone, and
// ContinuationResponse.
type Command interface {
	encode(enc *imapwire.Encoder)
}

// TaggedCommand is a normal IMAP command carrying a client-chosen tag.
//
// Args, if set, writes everything after the command name: it must not write
// the tag, the command name, the separating SP, or the trailing CRLF.
type TaggedCommand struct {
	Tag  string
	Name string
	Args func(enc *imapwire.Encoder)

	// ChangesMode marks a command whose completion (every chunk emitted)
	// transitions the handler to EntersMode, e.g. IDLE or AUTHENTICATE.
	ChangesMode bool
	EntersMode  Mode
	// ExitsOnTaggedResponse, meaningful only when ChangesMode and
	// EntersMode is ModeExpectingContinuations, marks that the mode
	// reverts to ModeExpectingResponses as soon as the tagged response
	// matching Tag arrives, rather than waiting for an explicit IdleDone
	// submission. Set for AUTHENTICATE, unset for IDLE.
	ExitsOnTaggedResponse bool
}

func (cmd *TaggedCommand) encode(enc *imapwire.Encoder) {
	enc.Atom(cmd.Tag).SP().Atom(cmd.Name)
	if cmd.Args != nil {
		enc.SP()
		cmd.Args(enc)
	}
}

// IdleDone is the sentinel that ends an IDLE session. Its wire form is
// "DONE\r\n".
type IdleDone struct{}

func (IdleDone) encode(enc *imapwire.Encoder) {
	enc.Atom("DONE")
}

// ContinuationResponse is an opaque payload sent in reply to a server
// continuation request during AUTHENTICATE. Its wire form is the raw bytes
// followed by "\r\n"; the core does not interpret Data.
type ContinuationResponse struct {
	Data []byte
}

func (cr ContinuationResponse) encode(enc *imapwire.Encoder) {
	enc.Raw(cr.Data)
}

// InboundEvent is an item delivered upstream by a Handler. Variants:
// *Response, *ContinuationRequest, and *ErrorEvent.
//
// *ErrorEvent is an addition beyond the distilled data model: the error
// handling design requires recoverable faults (ErrUnexpectedContinuationRequest)
// to surface as "inbound error events", but never defines a separate
// callback for them, so they travel through the same deliver callback as
// everything else.
type InboundEvent interface {
	isInboundEvent()
}

// Response is any tagged, untagged, or fatal response line. The core
// classifies only the tag/status/text triple; decoding response content
// (FETCH attributes, LIST options, ...) is left to the caller.
type Response struct {
	// Tag is empty for untagged responses ("*").
	Tag string
	// Type is the status or keyword atom following the tag, e.g. "OK",
	// "NO", "BAD", "EXISTS".
	Type string
	// Text is the raw remainder of the line after Type.
	Text string
}

func (*Response) isInboundEvent() {}

// ContinuationRequest is a "+" line forwarded upstream because the handler
// is in ModeExpectingContinuations (IDLE or AUTHENTICATE). Continuation
// requests consumed internally to release a queued literal never reach
// here.
type ContinuationRequest struct {
	Text string
}

func (*ContinuationRequest) isInboundEvent() {}

// ErrorEvent reports a protocol-level fault detected while processing
// inbound bytes. Delivering it never replaces the Response or
// ContinuationRequest that would otherwise be dispatched; faults that are
// recoverable (see ProtocolError.Kind) leave the handler usable afterwards.
type ErrorEvent struct {
	Err *ProtocolError
}

func (*ErrorEvent) isInboundEvent() {}
