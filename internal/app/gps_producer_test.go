package app

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rmcMoving = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	ggaLine   = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
)

func newTestHeadingReader(pub publisher, minSpeed float64) *headingReader {
	return &headingReader{
		pub:      pub,
		topic:    "swim/sample/heading",
		minSpeed: minSpeed,
		clock:    func() int64 { return 42 },
	}
}

func TestHeadingReader_PublishesCourse(t *testing.T) {
	pub := &fakePublisher{}
	h := newTestHeadingReader(pub, 0.5)

	assert.True(t, h.handleLine(rmcMoving+"\r\n"))

	msgs := pub.on("swim/sample/heading")
	require.Len(t, msgs, 1)
	assert.JSONEq(t, `{"type":"absolute_orientation","ts":42,"yaw_deg":84.4}`, msgs[0])
}

func TestHeadingReader_SkipsOtherSentences(t *testing.T) {
	pub := &fakePublisher{}
	h := newTestHeadingReader(pub, 0.5)

	assert.False(t, h.handleLine(ggaLine))
	assert.False(t, h.handleLine("garbage"))
	assert.False(t, h.handleLine(""))
	assert.Empty(t, pub.msgs)
}

func TestHeadingReader_SkipsSlowFix(t *testing.T) {
	pub := &fakePublisher{}
	h := newTestHeadingReader(pub, 30)

	assert.False(t, h.handleLine(rmcMoving))
	assert.Empty(t, pub.msgs)
}

func TestHeadingReader_RunUntilEOF(t *testing.T) {
	pub := &fakePublisher{}
	h := newTestHeadingReader(pub, 0.5)

	input := strings.Join([]string{ggaLine, rmcMoving, rmcMoving}, "\n")
	err := h.run(strings.NewReader(input))

	assert.ErrorIs(t, err, io.EOF)
	assert.Len(t, pub.on("swim/sample/heading"), 2)
}
