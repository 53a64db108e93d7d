package imapclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jefferyq2/go-imap-core/internal/imapwire"
)

// newTestHandler wires a Handler to two plain slices so the scenarios below
// can assert on exactly what was written downstream and delivered upstream.
func newTestHandler(t *testing.T) (h *Handler, written *[][]byte, delivered *[]InboundEvent) {
	t.Helper()
	var w [][]byte
	var d []InboundEvent
	h = NewHandler(
		func(b []byte) { w = append(w, append([]byte(nil), b...)) },
		func(ev InboundEvent) { d = append(d, ev) },
	)
	return h, &w, &d
}

func renameCommand(tag, from, to string) *TaggedCommand {
	return &TaggedCommand{
		Tag:  tag,
		Name: "RENAME",
		Args: func(enc *imapwire.Encoder) {
			enc.String(from).SP().String(to)
		},
	}
}

func TestBasicCommand(t *testing.T) {
	h, written, delivered := newTestHandler(t)

	future := h.Submit(&TaggedCommand{
		Tag:  "a",
		Name: "LOGIN",
		Args: func(enc *imapwire.Encoder) {
			enc.String("foo").SP().String("bar")
		},
	})
	done, err := future.Done()
	require.True(t, done)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("a LOGIN \"foo\" \"bar\"\r\n")}, *written)

	require.NoError(t, h.HandleBytes([]byte("a OK ok\r\n")))
	require.Equal(t, []InboundEvent{&Response{Tag: "a", Type: "OK", Text: "ok"}}, *delivered)
}

func TestOneLiteral(t *testing.T) {
	h, written, delivered := newTestHandler(t)

	future := h.Submit(renameCommand("x", "\n", "to"))
	require.Equal(t, [][]byte{[]byte("x RENAME {1}\r\n")}, *written)
	done, _ := future.Done()
	require.False(t, done)

	require.NoError(t, h.HandleBytes([]byte("+ OK\r\n")))
	require.Equal(t, [][]byte{
		[]byte("x RENAME {1}\r\n"),
		[]byte("\n \"to\"\r\n"),
	}, *written)
	done, err := future.Done()
	require.True(t, done)
	require.NoError(t, err)

	require.NoError(t, h.HandleBytes([]byte("x OK ok\r\n")))
	require.Equal(t, []InboundEvent{&Response{Tag: "x", Type: "OK", Text: "ok"}}, *delivered)
}

func TestTwoLiteralsOneCommand(t *testing.T) {
	h, written, delivered := newTestHandler(t)

	future := h.Submit(renameCommand("x", "\n", "\r"))
	require.Equal(t, [][]byte{[]byte("x RENAME {1}\r\n")}, *written)

	require.NoError(t, h.HandleBytes([]byte("+ OK\r\n")))
	require.Equal(t, [][]byte{
		[]byte("x RENAME {1}\r\n"),
		[]byte("\n {1}\r\n"),
	}, *written)

	require.NoError(t, h.HandleBytes([]byte("+ OK\r\n")))
	require.Equal(t, [][]byte{
		[]byte("x RENAME {1}\r\n"),
		[]byte("\n {1}\r\n"),
		[]byte("\r\r\n"),
	}, *written)
	done, err := future.Done()
	require.True(t, done)
	require.NoError(t, err)

	require.NoError(t, h.HandleBytes([]byte("x OK ok\r\n")))
	require.Equal(t, []InboundEvent{&Response{Tag: "x", Type: "OK", Text: "ok"}}, *delivered)
}

func TestTwoLiteralCommandsEnqueued(t *testing.T) {
	h, written, delivered := newTestHandler(t)

	futureX := h.Submit(renameCommand("x", "\n", "to"))
	futureY := h.Submit(renameCommand("y", "from", "\n"))
	require.Equal(t, [][]byte{[]byte("x RENAME {1}\r\n")}, *written)

	require.NoError(t, h.HandleBytes([]byte("+ OK\r\n")))
	require.Equal(t, [][]byte{
		[]byte("x RENAME {1}\r\n"),
		[]byte("\n \"to\"\r\n"),
		[]byte("y RENAME \"from\" {1}\r\n"),
	}, *written)
	doneX, errX := futureX.Done()
	require.True(t, doneX)
	require.NoError(t, errX)
	doneY, _ := futureY.Done()
	require.False(t, doneY)

	require.NoError(t, h.HandleBytes([]byte("+ OK\r\n")))
	require.Equal(t, [][]byte{
		[]byte("x RENAME {1}\r\n"),
		[]byte("\n \"to\"\r\n"),
		[]byte("y RENAME \"from\" {1}\r\n"),
		[]byte("\n\r\n"),
	}, *written)
	doneY, errY := futureY.Done()
	require.True(t, doneY)
	require.NoError(t, errY)

	require.NoError(t, h.HandleBytes([]byte("x OK ok\r\ny OK ok\r\n")))
	require.Equal(t, []InboundEvent{
		&Response{Tag: "x", Type: "OK", Text: "ok"},
		&Response{Tag: "y", Type: "OK", Text: "ok"},
	}, *delivered)
}

func TestUnexpectedContinuationRequest(t *testing.T) {
	h, written, delivered := newTestHandler(t)

	future := h.Submit(renameCommand("x", "\n", "to"))
	require.Equal(t, [][]byte{[]byte("x RENAME {1}\r\n")}, *written)

	require.NoError(t, h.HandleBytes([]byte("+ OK\r\n+ OK\r\n")))
	require.Equal(t, [][]byte{
		[]byte("x RENAME {1}\r\n"),
		[]byte("\n \"to\"\r\n"),
	}, *written)
	require.Len(t, *delivered, 1)
	errEvent, ok := (*delivered)[0].(*ErrorEvent)
	require.True(t, ok)
	assert.Equal(t, ErrUnexpectedContinuationRequest, errEvent.Err.Kind)

	done, err := future.Done()
	require.True(t, done)
	require.NoError(t, err)

	*delivered = nil
	require.NoError(t, h.HandleBytes([]byte("x OK ok\r\n")))
	require.Equal(t, []InboundEvent{&Response{Tag: "x", Type: "OK", Text: "ok"}}, *delivered)
}

func TestIdleAndAuthenticate(t *testing.T) {
	h, written, delivered := newTestHandler(t)

	h.Submit(&TaggedCommand{
		Tag:         "1",
		Name:        "IDLE",
		ChangesMode: true,
		EntersMode:  ModeExpectingContinuations,
	})
	require.Equal(t, [][]byte{[]byte("1 IDLE\r\n")}, *written)
	assert.Equal(t, ModeExpectingContinuations, h.Mode())

	require.NoError(t, h.HandleBytes([]byte("+ idling\r\n")))
	require.NoError(t, h.HandleBytes([]byte("+ still idling\r\n")))
	require.Equal(t, []InboundEvent{
		&ContinuationRequest{Text: "idling"},
		&ContinuationRequest{Text: "still idling"},
	}, *delivered)

	h.Submit(IdleDone{})
	require.Equal(t, [][]byte{[]byte("1 IDLE\r\n"), []byte("DONE\r\n")}, *written)
	assert.Equal(t, ModeExpectingResponses, h.Mode())

	*delivered = nil
	authFuture := h.Submit(&TaggedCommand{
		Tag:  "A001",
		Name: "AUTHENTICATE",
		Args: func(enc *imapwire.Encoder) {
			enc.Atom("GSSAPI")
		},
		ChangesMode:           true,
		EntersMode:            ModeExpectingContinuations,
		ExitsOnTaggedResponse: true,
	})
	require.Equal(t, [][]byte{
		[]byte("1 IDLE\r\n"), []byte("DONE\r\n"), []byte("A001 AUTHENTICATE GSSAPI\r\n"),
	}, *written)
	assert.Equal(t, ModeExpectingContinuations, h.Mode())

	require.NoError(t, h.HandleBytes([]byte("+ \r\n")))
	require.Equal(t, []InboundEvent{&ContinuationRequest{Text: ""}}, *delivered)

	respFuture := h.Submit(ContinuationResponse{Data: []byte("dGVzdA==")})
	done, err := respFuture.Done()
	require.True(t, done)
	require.NoError(t, err)
	require.Equal(t, [][]byte{
		[]byte("1 IDLE\r\n"), []byte("DONE\r\n"), []byte("A001 AUTHENTICATE GSSAPI\r\n"),
		[]byte("dGVzdA==\r\n"),
	}, *written)

	require.NoError(t, h.HandleBytes([]byte("A001 OK GSSAPI authentication successful\r\n")))
	assert.Equal(t, ModeExpectingResponses, h.Mode())
	done, err = authFuture.Done()
	require.True(t, done)
	require.NoError(t, err)
}

func TestInvalidSubmissionWhileExpectingContinuations(t *testing.T) {
	h, _, _ := newTestHandler(t)

	h.Submit(&TaggedCommand{Tag: "1", Name: "IDLE", ChangesMode: true, EntersMode: ModeExpectingContinuations})
	require.Equal(t, ModeExpectingContinuations, h.Mode())

	future := h.Submit(&TaggedCommand{Tag: "2", Name: "NOOP"})
	done, err := future.Done()
	require.True(t, done)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, ErrInvalidSubmission, protoErr.Kind)
}

func TestCloseFailsOutstandingFutures(t *testing.T) {
	h, _, _ := newTestHandler(t)

	future := h.Submit(renameCommand("x", "\n", "to"))
	doneBefore, _ := future.Done()
	require.False(t, doneBefore)

	h.Close()

	done, err := future.Done()
	require.True(t, done)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, ErrConnectionClosed, protoErr.Kind)

	_, err = newTestHandlerClosedSubmitErr(h)
	var protoErr2 *ProtocolError
	require.ErrorAs(t, err, &protoErr2)
	assert.Equal(t, ErrConnectionClosed, protoErr2.Kind)
}

func newTestHandlerClosedSubmitErr(h *Handler) (bool, error) {
	future := h.Submit(&TaggedCommand{Tag: "z", Name: "NOOP"})
	_, err := future.Done()
	return true, err
}
