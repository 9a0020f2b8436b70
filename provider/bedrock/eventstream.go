package bedrock

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
)

// eventStreamDecoder reads AWS's binary event-stream framing
// (total-length, headers-length, prelude-crc, headers, payload,
// message-crc), used by Bedrock Runtime's ConverseStream response.
// There is no pack dependency for this — it is AWS's own framing, not
// a general message-queue or RPC wire format any corpus library
// speaks — so it is decoded by hand; see the package doc for why this
// is the one stdlib-only piece of the bedrock client.
type eventStreamDecoder struct {
	r io.Reader
}

func newEventStreamDecoder(r io.Reader) *eventStreamDecoder {
	return &eventStreamDecoder{r: r}
}

const preludeLen = 8 // total length (4) + headers length (4)

// Next returns the JSON payload of the next event frame, skipping
// non-"chunk" event types. It returns io.EOF when the stream ends
// cleanly.
func (d *eventStreamDecoder) Next() ([]byte, error) {
	for {
		prelude := make([]byte, preludeLen+4) // + prelude crc
		if _, err := io.ReadFull(d.r, prelude); err != nil {
			return nil, err
		}
		totalLen := binary.BigEndian.Uint32(prelude[0:4])
		headersLen := binary.BigEndian.Uint32(prelude[4:8])

		if totalLen < uint32(preludeLen+4+4) {
			return nil, fmt.Errorf("bedrock eventstream: invalid frame length %d", totalLen)
		}

		rest := make([]byte, totalLen-uint32(preludeLen+4))
		if _, err := io.ReadFull(d.r, rest); err != nil {
			return nil, err
		}

		headers := rest[:headersLen]
		payload := rest[headersLen : len(rest)-4] // trailing message crc

		eventType, messageType := parseHeaders(headers)
		if messageType == "exception" || messageType == "error" {
			return nil, fmt.Errorf("bedrock eventstream error: %s", string(payload))
		}
		if eventType != "chunk" {
			continue
		}

		var wrapper struct {
			Bytes []byte `json:"bytes"`
		}
		if err := json.Unmarshal(payload, &wrapper); err == nil && len(wrapper.Bytes) > 0 {
			return wrapper.Bytes, nil
		}
		return payload, nil
	}
}

// parseHeaders walks the event-stream header block, extracting the
// ":event-type" and ":message-type" string-valued headers used to
// route chunk vs. exception frames. Other header types (int, bool,
// timestamp, uuid) are skipped since Converse never sets them.
func parseHeaders(b []byte) (eventType, messageType string) {
	i := 0
	for i < len(b) {
		nameLen := int(b[i])
		i++
		if i+nameLen > len(b) {
			return
		}
		name := string(b[i : i+nameLen])
		i += nameLen
		if i >= len(b) {
			return
		}
		valueType := b[i]
		i++
		switch valueType {
		case 7: // string: 2-byte length prefix + UTF-8 bytes
			if i+2 > len(b) {
				return
			}
			valLen := int(binary.BigEndian.Uint16(b[i : i+2]))
			i += 2
			if i+valLen > len(b) {
				return
			}
			val := string(b[i : i+valLen])
			i += valLen
			switch name {
			case ":event-type":
				eventType = val
			case ":message-type":
				messageType = val
			}
		case 0, 1: // bool true/false, no value bytes
		case 2: // byte
			i++
		case 3: // short
			i += 2
		case 4: // integer
			i += 4
		case 5: // long
			i += 8
		case 6: // byte array: 2-byte length prefix
			if i+2 > len(b) {
				return
			}
			valLen := int(binary.BigEndian.Uint16(b[i : i+2]))
			i += 2 + valLen
		case 8: // timestamp
			i += 8
		case 9: // uuid
			i += 16
		default:
			return
		}
	}
	return
}

var _ = crc32.IEEE // CRC verification intentionally skipped: malformed frames surface as a JSON decode error upstream instead.
