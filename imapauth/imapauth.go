// Package imapauth bridges a github.com/emersion/go-sasl client to a
// Handler's AUTHENTICATE continuation flow. It is the asynchronous
// equivalent of the teacher's blocking Client.Authenticate: instead of
// blocking on a channel per round, a Driver is fed InboundEvent items as
// they arrive and answers each challenge with Handler.Submit.
package imapauth

import (
	"errors"
	"fmt"

	"github.com/emersion/go-sasl"

	"github.com/jefferyq2/go-imap-core/imapclient"
	"github.com/jefferyq2/go-imap-core/imapcmd"
	"github.com/jefferyq2/go-imap-core/internal"
)

// Driver runs one SASL exchange for the AUTHENTICATE command that Start
// submits to a Handler.
type Driver struct {
	handler    *imapclient.Handler
	saslClient sasl.Client
	tag        string
	onDone     func(error)

	initialResponse []byte
	haveInitial     bool
	done            bool
}

// Start submits the AUTHENTICATE command for saslClient's mechanism and
// returns a Driver ready to consume the resulting continuation requests.
// hasSASLIR reports whether the server advertised the SASL-IR capability
// (imap.CapSASLIR), allowing an initial response inline with the command.
// onDone, if non-nil, runs once with the exchange's final error (nil on
// success) when the tagged response for tag arrives or the exchange fails.
func Start(handler *imapclient.Handler, tag string, saslClient sasl.Client, hasSASLIR bool, onDone func(error)) (*Driver, error) {
	mech, initialResp, err := saslClient.Start()
	if err != nil {
		return nil, err
	}

	d := &Driver{handler: handler, saslClient: saslClient, tag: tag, onDone: onDone}

	sendInline := initialResp != nil && hasSASLIR
	if initialResp != nil && !hasSASLIR {
		d.initialResponse = initialResp
		d.haveInitial = true
	}

	cmd := imapcmd.Authenticate(tag, mech, initialResp, sendInline)
	handler.Submit(cmd)
	return d, nil
}

// HandleEvent feeds ev to the driver. It reports whether ev belonged to
// this exchange (and was therefore consumed); the caller should dispatch
// any event this returns false for elsewhere.
func (d *Driver) HandleEvent(ev imapclient.InboundEvent) bool {
	if d.done {
		return false
	}

	switch ev := ev.(type) {
	case *imapclient.ContinuationRequest:
		d.handleChallenge(ev.Text)
		return true
	case *imapclient.Response:
		if ev.Tag == d.tag {
			d.finish(responseError(ev))
			return true
		}
	}
	return false
}

func (d *Driver) handleChallenge(challengeStr string) {
	if challengeStr == "" {
		if !d.haveInitial {
			d.finish(fmt.Errorf("imapauth: server requested SASL initial response, but none is available"))
			return
		}
		resp := d.initialResponse
		d.haveInitial = false
		d.submitResponse(resp)
		return
	}

	challenge, err := internal.DecodeSASL(challengeStr)
	if err != nil {
		d.finish(err)
		return
	}

	resp, err := d.saslClient.Next(challenge)
	if err != nil {
		d.finish(err)
		return
	}
	d.submitResponse(resp)
}

func (d *Driver) submitResponse(resp []byte) {
	payload := []byte(internal.EncodeSASL(resp))
	future := d.handler.Submit(imapclient.ContinuationResponse{Data: payload})
	future.OnDone(func(err error) {
		if err != nil {
			d.finish(err)
		}
	})
}

func (d *Driver) finish(err error) {
	d.done = true
	if d.onDone != nil {
		d.onDone(err)
	}
}

func responseError(r *imapclient.Response) error {
	if r.Type == "OK" {
		return nil
	}
	return errors.New(r.Type + " " + r.Text)
}
