package imapauth

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jefferyq2/go-imap-core/imapclient"
)

// fakeSASLClient implements sasl.Client for a toy two-round exchange:
// an initial response, then one challenge/response round.
type fakeSASLClient struct {
	rounds int
}

func (c *fakeSASLClient) Start() (string, []byte, error) {
	return "FAKE", []byte("initial"), nil
}

func (c *fakeSASLClient) Next(challenge []byte) ([]byte, error) {
	c.rounds++
	return append([]byte("resp-"), challenge...), nil
}

func TestDriverWithoutSASLIRWaitsForEmptyChallenge(t *testing.T) {
	var written [][]byte
	var driver *Driver
	h := imapclient.NewHandler(
		func(b []byte) { written = append(written, append([]byte(nil), b...)) },
		func(ev imapclient.InboundEvent) { driver.HandleEvent(ev) },
	)

	client := &fakeSASLClient{}
	var finalErr error
	var finalCalled bool
	var err error
	driver, err = Start(h, "A1", client, false, func(e error) {
		finalCalled = true
		finalErr = e
	})
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("A1 AUTHENTICATE FAKE\r\n")}, written)

	require.NoError(t, h.HandleBytes([]byte("+ \r\n")))
	require.Len(t, written, 2)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("initial"))+"\r\n", string(written[1]))

	require.NoError(t, h.HandleBytes([]byte("+ Y2hhbGxlbmdl\r\n")))
	require.Len(t, written, 3)
	decoded, err := base64.StdEncoding.DecodeString(string(written[2][:len(written[2])-2]))
	require.NoError(t, err)
	assert.Equal(t, "resp-challenge", string(decoded))
	assert.Equal(t, 1, client.rounds)

	require.NoError(t, h.HandleBytes([]byte("A1 OK authenticated\r\n")))
	assert.True(t, finalCalled)
	assert.NoError(t, finalErr)
	assert.True(t, driver.done)
}

func TestDriverReportsFailure(t *testing.T) {
	var driver *Driver
	h := imapclient.NewHandler(
		func([]byte) {},
		func(ev imapclient.InboundEvent) { driver.HandleEvent(ev) },
	)

	client := &fakeSASLClient{}
	var finalErr error
	var err error
	driver, err = Start(h, "A1", client, false, func(e error) { finalErr = e })
	require.NoError(t, err)

	require.NoError(t, h.HandleBytes([]byte("+ \r\n")))
	require.NoError(t, h.HandleBytes([]byte("A1 NO authentication failed\r\n")))

	require.Error(t, finalErr)
	assert.Contains(t, finalErr.Error(), "NO")
	assert.True(t, driver.done)
}
