// Package codec decodes client frames into inbound messages and encodes
// outbound events. It does no I/O.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/weiawesome/asg-rev/internal/config"
	"github.com/weiawesome/asg-rev/internal/domain"
)

// ErrUnknownProtocol is returned by ForProtocol for unsupported versions.
var ErrUnknownProtocol = errors.New("unknown protocol")

// DecodeError reports a frame that could not be decoded. No partial result
// accompanies it. Syntax is set when the frame is not the JSON it claims
// to be.
type DecodeError struct {
	Frame  string
	Reason string
	Syntax bool
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s frame: %s: %v", e.Frame, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s frame: %s", e.Frame, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(frame, reason string, err error) *DecodeError {
	return &DecodeError{Frame: frame, Reason: reason, Err: err}
}

func syntaxErr(frame string, err error) *DecodeError {
	return &DecodeError{Frame: frame, Reason: "malformed json", Syntax: true, Err: err}
}

// jsonErr classifies a json.Unmarshal failure: malformed input is a syntax
// error, well-formed JSON of the wrong shape is not.
func jsonErr(frame string, err error) *DecodeError {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return syntaxErr(frame, err)
	}
	return decodeErr(frame, "unexpected json shape", err)
}

// Decoder turns one raw frame into an inbound message. A nil message with a
// nil error means the frame carried nothing to act on.
type Decoder interface {
	Protocol() string
	Decode(frame []byte) (*domain.InboundMessage, error)
}

var decoders = map[string]Decoder{
	config.ProtocolLegacy:   LegacyDecoder{},
	config.ProtocolEnvelope: EnvelopeDecoder{},
}

// ForProtocol returns the decoder for a protocol version.
func ForProtocol(name string) (Decoder, error) {
	d, ok := decoders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, name)
	}
	return d, nil
}

// Encode serializes an outbound event as a flat JSON object.
func Encode(event interface{}) ([]byte, error) {
	return json.Marshal(event)
}

// EncodeError serializes an error event.
func EncodeError(message string) []byte {
	data, _ := json.Marshal(&domain.ErrorEvent{Error: message})
	return data
}
