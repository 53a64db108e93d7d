package imapmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jefferyq2/go-imap-core/imapclient"
	"github.com/jefferyq2/go-imap-core/internal/imapwire"
)

func TestNewHandlerCountsBytesAndChunks(t *testing.T) {
	before := testutil.ToFloat64(ChunksWrittenTotal)
	beforeBytes := testutil.ToFloat64(BytesWrittenTotal)

	var written [][]byte
	h := NewHandler(
		func(b []byte) { written = append(written, b) },
		func(imapclient.InboundEvent) {},
		nil,
	)

	future := Submit(h, &imapclient.TaggedCommand{
		Tag:  "a",
		Name: "NOOP",
	})
	done, err := future.Done()
	require.True(t, done)
	require.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(ChunksWrittenTotal))
	assert.Equal(t, beforeBytes+float64(len("a NOOP\r\n")), testutil.ToFloat64(BytesWrittenTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(CommandsSubmittedTotal.WithLabelValues("NOOP")))
}

func TestNewHandlerCountsResponsesAndErrors(t *testing.T) {
	h := NewHandler(
		func([]byte) {},
		func(imapclient.InboundEvent) {},
		nil,
	)

	before := testutil.ToFloat64(ResponsesTotal.WithLabelValues("OK"))
	require.NoError(t, h.HandleBytes([]byte("a OK done\r\n")))
	assert.Equal(t, before+1, testutil.ToFloat64(ResponsesTotal.WithLabelValues("OK")))

	beforeErr := testutil.ToFloat64(ErrorsTotal.WithLabelValues("unexpected-continuation-request"))
	require.NoError(t, h.HandleBytes([]byte("+ unexpected\r\n")))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(ErrorsTotal.WithLabelValues("unexpected-continuation-request")))
}

func TestSubmitLabelsContinuationResponse(t *testing.T) {
	h := NewHandler(func([]byte) {}, func(imapclient.InboundEvent) {}, nil)

	Submit(h, &imapclient.TaggedCommand{
		Tag:  "A1",
		Name: "AUTHENTICATE",
		Args: func(enc *imapwire.Encoder) {
			enc.Atom("PLAIN")
		},
		ChangesMode:           true,
		EntersMode:            imapclient.ModeExpectingContinuations,
		ExitsOnTaggedResponse: true,
	})
	require.NoError(t, h.HandleBytes([]byte("+ \r\n")))

	before := testutil.ToFloat64(CommandsSubmittedTotal.WithLabelValues("CONTINUATION-RESPONSE"))
	Submit(h, imapclient.ContinuationResponse{Data: []byte("x")})
	assert.Equal(t, before+1, testutil.ToFloat64(CommandsSubmittedTotal.WithLabelValues("CONTINUATION-RESPONSE")))
}
