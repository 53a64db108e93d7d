package imapclient

import (
	"fmt"
	"io"
	"log"

	"github.com/jefferyq2/go-imap-core/internal/imapwire"

	"github.com/jefferyq2/go-imap-core"
)

// Options configures a Handler beyond the write/deliver push-function pair.
// A nil *Options is equivalent to a zero Options value; this is the entire
// configuration surface of the engine, matching the teacher's
// imapclient.Options (DebugWriter) being the entire configuration surface
// of its blocking Client.
type Options struct {
	// DebugWriter, if set, receives a copy of every chunk written downstream
	// by Submit and every byte fed in via HandleBytes.
	DebugWriter io.Writer
	// Caps snapshots the server's advertised capabilities; see
	// Handler.SetCaps. LITERAL+ and LITERAL- affect literal encoding.
	Caps imap.CapSet
	// Logger receives the conditions the handler logs: terminal parse
	// errors and unexpected continuation requests, never the success path.
	// Defaults to log.Default().
	Logger *log.Logger
}

// Handler is the duplex IMAP protocol engine: it turns submitted Command
// items into wire chunks respecting the synchronising-literal rule, and
// turns inbound bytes into InboundEvent items, all synchronously and
// without internal locking. The caller owns the transport loop.
type Handler struct {
	write   func([]byte)
	deliver func(InboundEvent)
	debug   io.Writer
	logger  *log.Logger

	caps capSnapshot
	dec  *imapwire.Decoder

	mode                    Mode
	queue                   outboundQueue
	pendingContinuationsTag string

	closed bool
}

// NewHandler creates a Handler driven by the two push functions: write
// receives outbound wire chunks, deliver receives inbound events.
func NewHandler(write func([]byte), deliver func(InboundEvent)) *Handler {
	return NewHandlerWithOptions(write, deliver, nil)
}

// NewHandlerWithOptions is NewHandler with the ambient configuration
// surface attached.
func NewHandlerWithOptions(write func([]byte), deliver func(InboundEvent), options *Options) *Handler {
	if options == nil {
		options = &Options{}
	}
	logger := options.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		write:   write,
		deliver: deliver,
		debug:   options.DebugWriter,
		logger:  logger,
		caps:    snapshotCaps(options.Caps),
		dec:     imapwire.NewDecoder(),
		mode:    ModeExpectingResponses,
	}
}

// SetCaps updates the capability snapshot consulted when encoding
// subsequent commands, e.g. after a fresh CAPABILITY response.
func (h *Handler) SetCaps(caps imap.CapSet) {
	h.caps = snapshotCaps(caps)
}

// Mode reports the handler's current mode.
func (h *Handler) Mode() Mode {
	return h.mode
}

// Submit enqueues item for transmission and returns a Future that resolves
// once the command's outcome (for TaggedCommand/IdleDone: every chunk
// handed to the transport; for ContinuationResponse: the single immediate
// write) is known.
func (h *Handler) Submit(item Command) *Future {
	future := &Future{}

	if h.closed {
		future.resolve(&ProtocolError{Kind: ErrConnectionClosed})
		return future
	}

	switch item := item.(type) {
	case *TaggedCommand:
		if h.mode == ModeExpectingContinuations {
			future.resolve(&ProtocolError{Kind: ErrInvalidSubmission, Tag: item.Tag})
			return future
		}
		chunks, err := encodeCommand(item, h.caps)
		if err != nil {
			future.resolve(err)
			return future
		}
		h.enqueue(&queueEntry{
			tag:                   item.Tag,
			chunksRemaining:       chunks,
			future:                future,
			changesMode:           item.ChangesMode,
			entersMode:            item.EntersMode,
			exitsOnTaggedResponse: item.ExitsOnTaggedResponse,
		})
		return future

	case IdleDone:
		if h.mode != ModeExpectingContinuations {
			future.resolve(&ProtocolError{Kind: ErrInvalidSubmission})
			return future
		}
		chunks, err := encodeCommand(item, h.caps)
		if err != nil {
			future.resolve(err)
			return future
		}
		h.enqueue(&queueEntry{
			chunksRemaining: chunks,
			future:          future,
			changesMode:     true,
			entersMode:      ModeExpectingResponses,
		})
		return future

	case ContinuationResponse:
		if h.mode != ModeExpectingContinuations {
			future.resolve(&ProtocolError{Kind: ErrInvalidSubmission})
			return future
		}
		// Per the outbound scheduler contract, a continuation-response is
		// emitted immediately and does not interact with the literal-ack
		// path or the queue at all.
		chunks, err := encodeCommand(item, h.caps)
		if err != nil {
			future.resolve(err)
			return future
		}
		for _, chunk := range chunks {
			h.writeChunk(chunk)
		}
		future.resolve(nil)
		return future

	default:
		future.resolve(&ProtocolError{
			Kind: ErrInvalidSubmission,
			Err:  fmt.Errorf("imapclient: unknown command type %T", item),
		})
		return future
	}
}

// enqueue appends entry to the outbound queue, releasing its first chunk
// immediately if the queue was empty and the mode permits.
func (h *Handler) enqueue(entry *queueEntry) {
	wasEmpty := h.queue.empty()
	h.queue.push(entry)
	if wasEmpty {
		h.releaseHeadFirstChunk()
	}
}

// releaseHeadFirstChunk releases the current head's next chunk. Used both
// for a freshly-enqueued head and for the successor exposed once a prior
// head completes.
func (h *Handler) releaseHeadFirstChunk() {
	head := h.queue.head()
	if head == nil {
		return
	}
	chunk, ok := head.releaseNextChunk()
	if !ok {
		panic("imapclient: unreachable: queue entry with no chunks")
	}
	h.writeChunk(chunk)
	if !head.awaitingLiteralAck() {
		h.completeHead()
	}
}

// completeHead pops a fully-transmitted head, resolves its future, applies
// any queued mode transition, and exposes the next entry if the mode still
// permits transmission.
func (h *Handler) completeHead() {
	entry := h.queue.popHead()
	if entry.changesMode {
		h.mode = entry.entersMode
		if entry.entersMode == ModeExpectingContinuations && entry.exitsOnTaggedResponse {
			h.pendingContinuationsTag = entry.tag
		}
	}
	entry.future.resolve(nil)
	if h.mode == ModeExpectingResponses {
		h.releaseHeadFirstChunk()
	}
}

// onContinuationConsumedForLiteral releases the queue head's next
// withheld chunk in response to a "+" interpreted as a literal ack.
func (h *Handler) onContinuationConsumedForLiteral() {
	head := h.queue.head()
	if head == nil {
		panic("imapclient: unreachable: literal ack consumed with empty queue")
	}
	chunk, ok := head.releaseNextChunk()
	if !ok {
		panic("imapclient: unreachable: literal ack consumed with no pending chunk")
	}
	h.writeChunk(chunk)
	if !head.awaitingLiteralAck() {
		h.completeHead()
	}
}

// HandleBytes feeds freshly-received bytes into the handler, draining and
// dispatching as many complete responses or continuation requests as they
// yield. It never blocks.
func (h *Handler) HandleBytes(buf []byte) error {
	if h.closed {
		return &ProtocolError{Kind: ErrConnectionClosed}
	}
	if h.debug != nil {
		h.debug.Write(buf)
	}
	h.dec.Feed(buf)

	for {
		ev, ok, err := h.dec.Next()
		if err != nil {
			perr := &ProtocolError{Kind: ErrParseFailure, Err: err}
			h.logger.Printf("imapclient: %v", perr)
			h.failAll(perr)
			return perr
		}
		if !ok {
			return nil
		}
		h.dispatch(ev)
	}
}

func (h *Handler) dispatch(ev interface{}) {
	switch ev := ev.(type) {
	case *imapwire.ContinuationRequest:
		h.dispatchContinuation(ev)
	case *imapwire.Response:
		h.dispatchResponse(ev)
	default:
		panic("imapclient: unreachable: unknown imapwire event type")
	}
}

func (h *Handler) dispatchContinuation(ev *imapwire.ContinuationRequest) {
	if h.mode == ModeExpectingContinuations {
		h.deliver(convertWireEvent(ev))
		return
	}

	head := h.queue.head()
	if head == nil || !head.awaitingLiteralAck() {
		err := &ProtocolError{Kind: ErrUnexpectedContinuationRequest}
		h.logger.Printf("imapclient: %v", err)
		h.deliver(&ErrorEvent{Err: err})
		return
	}
	h.onContinuationConsumedForLiteral()
}

func (h *Handler) dispatchResponse(ev *imapwire.Response) {
	if h.mode == ModeExpectingContinuations && h.pendingContinuationsTag != "" && ev.Tag == h.pendingContinuationsTag {
		h.mode = ModeExpectingResponses
		h.pendingContinuationsTag = ""
	}
	h.deliver(convertWireEvent(ev))
}

// Close tears the handler down: every outstanding Future fails with
// ErrConnectionClosed and further Submit/HandleBytes calls fail fast. It
// supplements error kind 5 ("downstream write fails") with a concrete
// caller-driven teardown path, mirroring the teacher's Client.read
// deferred cleanup of pendingCmds.
func (h *Handler) Close() {
	if h.closed {
		return
	}
	h.failAll(&ProtocolError{Kind: ErrConnectionClosed})
	h.closed = true
}

func (h *Handler) failAll(err *ProtocolError) {
	for _, entry := range h.queue.entries {
		entry.future.resolve(err)
	}
	h.queue.entries = nil
}

func (h *Handler) writeChunk(chunk []byte) {
	if h.debug != nil {
		h.debug.Write(chunk)
	}
	h.write(chunk)
}
