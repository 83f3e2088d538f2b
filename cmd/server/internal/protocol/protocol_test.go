package protocol

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  ClientMessage
	}{
		{name: "echo ascii", msg: &EchoMessage{Content: "Hello, World!"}},
		{name: "echo empty", msg: &EchoMessage{Content: ""}},
		{name: "echo binary-ish", msg: &EchoMessage{Content: string([]byte{0, 0, 0, 42, 0xff, 0xfe})}},
		{name: "add", msg: &AddRequest{A: 10, B: 20}},
		{name: "add zero", msg: &AddRequest{A: 0, B: 0}},
		{name: "add negative", msg: &AddRequest{A: -7, B: -13}},
		{name: "add bounds", msg: &AddRequest{A: math.MaxInt32, B: math.MinInt32}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := MarshalClient(tt.msg)
			require.NoError(t, err, "Failed to encode message")

			decoded, err := UnmarshalClient(encoded)
			require.NoError(t, err, "Failed to decode message")
			assert.Equal(t, tt.msg, decoded, "Decoded message does not match")
		})
	}
}

func TestServerCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  ServerMessage
	}{
		{name: "echo", msg: &EchoMessage{Content: "hi"}},
		{name: "add response", msg: &AddResponse{Result: 30}},
		{name: "add response negative", msg: &AddResponse{Result: math.MinInt32}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := MarshalServer(tt.msg)
			require.NoError(t, err, "Failed to encode message")

			decoded, err := UnmarshalServer(encoded)
			require.NoError(t, err, "Failed to decode message")
			assert.Equal(t, tt.msg, decoded, "Decoded message does not match")
		})
	}
}

func TestUnmarshalClientErrors(t *testing.T) {
	echoFrame, err := MarshalClient(&EchoMessage{Content: "hello"})
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty buffer", data: nil},
		{name: "garbage", data: []byte{0xff, 0xff, 0xff}},
		// field 3 does not exist in the client union
		{name: "unknown variant", data: []byte{0x1a, 0x00}},
		{name: "truncated payload", data: echoFrame[:len(echoFrame)-2]},
		// varint wire type where a length-delimited variant is expected
		{name: "wrong wire type", data: []byte{0x08, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalClient(tt.data)
			assert.Error(t, err, "Expected a decode error")
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{
		[]byte("plain"),
		{},
		// payload bytes that look like a length prefix must not confuse framing
		{0x00, 0x00, 0x00, 0x05, 0xde, 0xad},
	}

	var buf bytes.Buffer
	for _, p := range payloads {
		require.NoError(t, WriteFrame(&buf, p), "Failed to write frame")
	}

	for _, want := range payloads {
		got, err := ReadFrame(&buf, 1<<20)
		require.NoError(t, err, "Failed to read frame")
		assert.Equal(t, want, got, "Frame payload corrupted")
	}

	_, err := ReadFrame(&buf, 1<<20)
	assert.ErrorIs(t, err, io.EOF, "Expected EOF on drained stream")
}

func TestReadFrameRejectsOversize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, make([]byte, 64)))

	_, err := ReadFrame(&buf, 16)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestReadFrameTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("full payload")))
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-3])

	_, err := ReadFrame(truncated, 1<<20)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
