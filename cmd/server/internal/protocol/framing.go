package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Each frame is a 4-byte unsigned BigEndian length prefix followed by that
// many bytes of encoded message. The prefix lets a stream reader reassemble
// partial reads regardless of what bytes the payload contains.
const lengthPrefixSize = 4

// ErrFrameTooLarge reports a length prefix above the configured maximum.
// The stream cannot be resynchronized past it, so callers must treat it as
// fatal for the connection.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// WriteFrame writes payload as a single length-prefixed frame.
func WriteFrame(w io.Writer, payload []byte) error {
	buf := make([]byte, lengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(buf[:lengthPrefixSize], uint32(len(payload)))
	copy(buf[lengthPrefixSize:], payload)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// ReadFrame reads the next length-prefixed frame, rejecting lengths above
// max. A clean peer disconnect on a frame boundary surfaces as io.EOF; a
// disconnect mid-frame surfaces as io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader, max uint32) ([]byte, error) {
	header := make([]byte, lengthPrefixSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read frame length: %w", err)
	}

	length := binary.BigEndian.Uint32(header)
	if length > max {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, length, max)
	}
	if length == 0 {
		return []byte{}, nil
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("failed to read frame body: %w", err)
	}
	return payload, nil
}
