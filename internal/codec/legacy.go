package codec

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"strings"

	"github.com/weiawesome/asg-rev/internal/config"
	"github.com/weiawesome/asg-rev/internal/domain"
)

const (
	// FileMarker is the leading byte of a binary-upload frame.
	FileMarker = 'B'

	// lengthChars is the base64 width of the 4-byte header length.
	lengthChars = 8

	frameText = "text"
	frameFile = "file"
)

// FileHeader is the JSON header of a binary-upload frame.
type FileHeader struct {
	FileName string `json:"file_name"`
}

// LegacyDecoder sniffs the leading byte: FileMarker selects a binary-upload
// frame, anything else is a JSON text frame.
type LegacyDecoder struct{}

func (LegacyDecoder) Protocol() string { return config.ProtocolLegacy }

func (LegacyDecoder) Decode(frame []byte) (*domain.InboundMessage, error) {
	if len(frame) == 0 {
		return nil, nil
	}
	if frame[0] == FileMarker {
		header, payload, err := DecodeFileFrame(frame[1:])
		if err != nil {
			return nil, err
		}
		return domain.NewFileMessage(strings.TrimSpace(header.FileName), payload), nil
	}
	return DecodeTextFrame(frame)
}

// DecodeTextFrame extracts the trimmed "content" string. Other keys are
// ignored; a missing content key yields empty content.
func DecodeTextFrame(frame []byte) (*domain.InboundMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(frame, &fields); err != nil {
		return nil, jsonErr(frameText, err)
	}

	var content string
	if raw, ok := fields["content"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &content); err != nil {
			return nil, decodeErr(frameText, "content is not a string", err)
		}
	}
	return domain.NewTextMessage(strings.TrimSpace(content)), nil
}

// DecodeFileFrame splits a binary-upload body (marker already stripped):
//
//	base64(uint32 BE header length H) | base64(H bytes JSON header) | base64(payload)
//
// The header span is exactly the base64 width of H bytes.
func DecodeFileFrame(body []byte) (FileHeader, []byte, error) {
	var header FileHeader

	if len(body) < lengthChars {
		return header, nil, decodeErr(frameFile, "truncated header length", nil)
	}

	lenBytes := make([]byte, base64.StdEncoding.DecodedLen(lengthChars))
	n, err := base64.StdEncoding.Decode(lenBytes, body[:lengthChars])
	if err != nil {
		return header, nil, decodeErr(frameFile, "invalid header length encoding", err)
	}
	if n != 4 {
		return header, nil, decodeErr(frameFile, "header length is not 4 bytes", nil)
	}
	headerLen := uint64(binary.BigEndian.Uint32(lenBytes[:4]))

	rest := body[lengthChars:]
	headerChars := (headerLen + 2) / 3 * 4
	if headerChars > uint64(len(rest)) {
		return header, nil, decodeErr(frameFile, "truncated header", nil)
	}

	headerBytes := make([]byte, base64.StdEncoding.DecodedLen(int(headerChars)))
	n, err = base64.StdEncoding.Decode(headerBytes, rest[:headerChars])
	if err != nil {
		return header, nil, decodeErr(frameFile, "invalid header encoding", err)
	}
	if uint64(n) != headerLen {
		return header, nil, decodeErr(frameFile, "header length mismatch", nil)
	}
	if err := json.Unmarshal(headerBytes[:n], &header); err != nil {
		return header, nil, decodeErr(frameFile, "invalid header json", err)
	}

	encoded := rest[headerChars:]
	payload := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err = base64.StdEncoding.Decode(payload, encoded)
	if err != nil {
		return FileHeader{}, nil, decodeErr(frameFile, "invalid payload encoding", err)
	}

	return header, payload[:n], nil
}

// EncodeFileFrame builds a binary-upload frame, marker included.
func EncodeFileFrame(header FileHeader, payload []byte) ([]byte, error) {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}

	var lenBytes [4]byte
	binary.BigEndian.PutUint32(lenBytes[:], uint32(len(headerJSON)))

	enc := base64.StdEncoding
	out := make([]byte, 1, 1+lengthChars+enc.EncodedLen(len(headerJSON))+enc.EncodedLen(len(payload)))
	out[0] = FileMarker
	out = enc.AppendEncode(out, lenBytes[:])
	out = enc.AppendEncode(out, headerJSON)
	out = enc.AppendEncode(out, payload)
	return out, nil
}

// EncodeTextFrame builds a JSON text frame.
func EncodeTextFrame(content string) ([]byte, error) {
	return json.Marshal(map[string]string{"content": content})
}
