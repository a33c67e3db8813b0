package header

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxHeaderSize bounds the payload a frame may announce.
const MaxHeaderSize = 64 << 20

var ErrFrameTooLarge = errors.New("header frame too large")

// ReadFrame reads one header frame from r.
// Wire format: [8 bytes BE: payload length][payload].
func ReadFrame(r io.Reader) ([]byte, error) {
	var prefix [8]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("read frame length: %w", err)
	}

	n := binary.BigEndian.Uint64(prefix[:])
	if n > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload (%d bytes): %w", n, err)
	}
	return payload, nil
}

// WriteFrame writes payload to w behind its 8-byte big-endian length.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxHeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(len(payload)))

	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}
