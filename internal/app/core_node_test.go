package app

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/relabs-tech/swim_computer/internal/sample"
)

func newTestNode() (*coreNode, *fakePublisher) {
	pub := &fakePublisher{}
	return newCoreNode(testConfig(), pub, log.New(io.Discard, "", 0)), pub
}

func TestCoreNode_SessionLifecycle(t *testing.T) {
	n, pub := newTestNode()
	cfg := n.cfg

	n.handle(coreInput{command: sessionStart})
	assert.Equal(t, []string{`{"rate":"idle"}`}, pub.on(cfg.TopicSamplingRate))
	assert.Equal(t, []string{`{"count":0}`}, pub.on(cfg.TopicStrokes))
	assert.Equal(t, []string{`{"recording":true}`}, pub.on(cfg.TopicSessionState))

	ms := int64(time.Millisecond)
	n.handle(coreInput{sample: sample.LinearAcceleration{At: 0, X: 3}})
	n.handle(coreInput{sample: sample.LinearAcceleration{At: 200 * ms, X: 0.1}})
	n.handle(coreInput{sample: sample.LinearAcceleration{At: 600 * ms, X: 3}})

	assert.Equal(t, []string{`{"rate":"idle"}`, `{"rate":"active"}`}, pub.on(cfg.TopicSamplingRate))
	assert.Equal(t, []string{`{"count":0}`, `{"count":1}`, `{"count":2}`}, pub.on(cfg.TopicStrokes))

	n.handle(coreInput{command: sessionStop})
	assert.Equal(t, []string{`{"deviated":false}`}, pub.on(cfg.TopicDeviation))
	assert.Equal(t, []string{`{"rate":"idle"}`, `{"rate":"active"}`, `{"rate":"idle"}`}, pub.on(cfg.TopicSamplingRate))
	assert.Equal(t, []string{`{"recording":true}`, `{"recording":false}`}, pub.on(cfg.TopicSessionState))
}

func TestCoreNode_StopWhileIdleKeepsRate(t *testing.T) {
	n, pub := newTestNode()
	n.handle(coreInput{command: sessionStart})
	n.handle(coreInput{command: sessionStop})
	assert.Equal(t, []string{`{"rate":"idle"}`}, pub.on(n.cfg.TopicSamplingRate))
}

func TestCoreNode_RunStopsSessionOnShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	n, pub := newTestNode()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.run(ctx)
		close(done)
	}()

	n.enqueue(coreInput{command: sessionStart})
	require.Eventually(t, func() bool {
		return len(pub.on(n.cfg.TopicStrokes)) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, []string{`{"deviated":false}`}, pub.on(n.cfg.TopicDeviation))
	assert.Equal(t, []string{`{"recording":true}`, `{"recording":false}`}, pub.on(n.cfg.TopicSessionState))
}

func TestCoreNode_PublishErrorsAreNotFatal(t *testing.T) {
	n, pub := newTestNode()
	pub.err = assert.AnError
	n.handle(coreInput{command: sessionStart})
	n.handle(coreInput{command: sessionStop})
	assert.Len(t, pub.msgs, 5)
}

func TestParseSessionCommand(t *testing.T) {
	cmd, err := parseSessionCommand([]byte(" START\n"))
	require.NoError(t, err)
	assert.Equal(t, sessionStart, cmd)

	_, err = parseSessionCommand([]byte("pause"))
	assert.Error(t, err)
}

func TestDecodeRate(t *testing.T) {
	r, err := decodeRate(encodeRate("active"))
	require.NoError(t, err)
	assert.EqualValues(t, "active", r)

	_, err = decodeRate([]byte(`{"rate":"turbo"}`))
	assert.Error(t, err)
	_, err = decodeRate([]byte(`nope`))
	assert.Error(t, err)
}

func TestMonotonicClock(t *testing.T) {
	c := newMonotonicClock()
	a := c.Now()
	b := c.Now()
	assert.GreaterOrEqual(t, b, a)
}
