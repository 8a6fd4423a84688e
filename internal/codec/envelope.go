package codec

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/weiawesome/asg-rev/internal/config"
	"github.com/weiawesome/asg-rev/internal/domain"
)

const frameEnvelope = "envelope"

// Envelope kinds.
const (
	KindText = "text"
	KindFile = "file"
)

// Envelope is the tagged frame of the envelope protocol. Data is the
// standard base64 encoding of the file bytes.
type Envelope struct {
	Kind     string `json:"kind"`
	Content  string `json:"content,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Data     string `json:"data,omitempty"`
}

// EnvelopeDecoder decodes explicitly tagged JSON frames.
type EnvelopeDecoder struct{}

func (EnvelopeDecoder) Protocol() string { return config.ProtocolEnvelope }

func (EnvelopeDecoder) Decode(frame []byte) (*domain.InboundMessage, error) {
	if len(frame) == 0 {
		return nil, nil
	}

	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, jsonErr(frameEnvelope, err)
	}

	switch env.Kind {
	case KindText:
		return domain.NewTextMessage(strings.TrimSpace(env.Content)), nil
	case KindFile:
		data, err := base64.StdEncoding.DecodeString(env.Data)
		if err != nil {
			return nil, decodeErr(frameEnvelope, "invalid data encoding", err)
		}
		return domain.NewFileMessage(strings.TrimSpace(env.FileName), data), nil
	case "":
		return nil, decodeErr(frameEnvelope, "missing kind", nil)
	default:
		return nil, decodeErr(frameEnvelope, "unknown kind "+env.Kind, nil)
	}
}

// EncodeEnvelope builds an envelope frame for msg.
func EncodeEnvelope(msg *domain.InboundMessage) ([]byte, error) {
	env := Envelope{}
	switch msg.Kind {
	case domain.InboundFile:
		env.Kind = KindFile
		env.FileName = msg.FileName
		env.Data = base64.StdEncoding.EncodeToString(msg.Data)
	default:
		env.Kind = KindText
		env.Content = msg.Content
	}
	return json.Marshal(env)
}
