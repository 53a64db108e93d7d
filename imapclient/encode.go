package imapclient

import (
	"github.com/jefferyq2/go-imap-core/internal/imapwire"

	"github.com/jefferyq2/go-imap-core"
)

// capSnapshot is the subset of a capability set that changes literal
// encoding, resolving the LITERAL+/LITERAL- open question: with LITERAL+,
// or with LITERAL- for payloads of at most 4096 bytes, literals become
// non-synchronising and the payload joins the announcement's chunk instead
// of starting a new one.
type capSnapshot struct {
	literalPlus  bool
	literalMinus bool
}

func snapshotCaps(caps imap.CapSet) capSnapshot {
	if caps == nil {
		return capSnapshot{}
	}
	return capSnapshot{
		literalPlus:  caps.Has(imap.CapLiteralPlus),
		literalMinus: caps.Has(imap.CapLiteralMinus),
	}
}

// encodeCommand runs item through an imapwire.Encoder configured from caps
// and returns the ordered chunk list. A command with K literals produces
// K+1 chunks, unless caps eliminate literal boundaries entirely.
func encodeCommand(item Command, caps capSnapshot) ([][]byte, error) {
	enc := &imapwire.Encoder{
		LiteralPlus:  caps.literalPlus,
		LiteralMinus: caps.literalMinus,
	}
	item.encode(enc)
	chunks, err := enc.CRLF()
	if err != nil {
		return nil, &ProtocolError{Kind: ErrEncodeFailure, Err: err}
	}
	return chunks, nil
}
