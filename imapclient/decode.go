package imapclient

import "github.com/jefferyq2/go-imap-core/internal/imapwire"

// convertWireEvent turns a raw imapwire decode result into the client-facing
// InboundEvent variant. This is the only place the two otherwise-identical
// type families are bridged, keeping imapclient's public surface decoupled
// from the internal wire package.
func convertWireEvent(ev interface{}) InboundEvent {
	switch ev := ev.(type) {
	case *imapwire.Response:
		return &Response{Tag: ev.Tag, Type: ev.Type, Text: ev.Text}
	case *imapwire.ContinuationRequest:
		return &ContinuationRequest{Text: ev.Text}
	default:
		panic("imapclient: unreachable: unknown imapwire event type")
	}
}
