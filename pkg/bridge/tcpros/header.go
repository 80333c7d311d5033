// Copyright 2024-2026 Rapyuta Robotics

// Package tcpros implements the TCPROS connection header wire format: a
// uint32 little-endian frame length followed by a sequence of fields, each
// encoded as its own uint32 little-endian length and a "key=value" string.
//
// The dynamic bridge only ever exchanges connection headers with service
// servers (the type probe handshake); it never carries message payloads.
package tcpros

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// maxHeaderLen rejects nonsense frame lengths before allocation. Real
// connection headers are a few hundred bytes.
const maxHeaderLen = 16 * 1024 * 1024

// EncodeHeader serializes fields into the TCPROS header body, without the
// outer 4-byte frame length. Keys are emitted in sorted order so output is
// deterministic.
func EncodeHeader(fields map[string]string) []byte {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf []byte
	for _, key := range keys {
		field := key + "=" + fields[key]
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(field)))
		buf = append(buf, field...)
	}
	return buf
}

// DecodeHeader parses a TCPROS header body (without the outer frame length)
// into a field map.
func DecodeHeader(data []byte) (map[string]string, error) {
	fields := make(map[string]string)
	for len(data) > 0 {
		if len(data) < 4 {
			return nil, fmt.Errorf("tcpros: truncated field length (%d trailing bytes)", len(data))
		}
		fieldLen := binary.LittleEndian.Uint32(data[:4])
		data = data[4:]
		if uint64(fieldLen) > uint64(len(data)) {
			return nil, fmt.Errorf("tcpros: field length %d exceeds remaining %d bytes", fieldLen, len(data))
		}
		field := string(data[:fieldLen])
		data = data[fieldLen:]

		eq := -1
		for i := 0; i < len(field); i++ {
			if field[i] == '=' {
				eq = i
				break
			}
		}
		if eq < 0 {
			return nil, fmt.Errorf("tcpros: field %q has no '=' separator", field)
		}
		fields[field[:eq]] = field[eq+1:]
	}
	return fields, nil
}

// WriteHeader frames and writes a header to w.
func WriteHeader(w io.Writer, fields map[string]string) error {
	body := EncodeHeader(fields)
	frame := binary.LittleEndian.AppendUint32(make([]byte, 0, 4+len(body)), uint32(len(body)))
	frame = append(frame, body...)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("tcpros: write header: %w", err)
	}
	return nil
}

// ReadHeader reads one framed header from r. Short reads are errors: the
// peer either sends a complete header or the handshake is broken.
func ReadHeader(r io.Reader) (map[string]string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("tcpros: read header length: %w", err)
	}
	headerLen := binary.LittleEndian.Uint32(lenBuf[:])
	if headerLen > maxHeaderLen {
		return nil, fmt.Errorf("tcpros: header length %d exceeds limit", headerLen)
	}
	body := make([]byte, headerLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("tcpros: read header body: %w", err)
	}
	return DecodeHeader(body)
}
