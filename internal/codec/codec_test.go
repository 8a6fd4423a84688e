package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/asg-rev/internal/domain"
)

func TestFileFrame_RoundTrip(t *testing.T) {
	sizes := []int{0, 1, 2, 3, 64*1024 + 7}

	for _, size := range sizes {
		payload := bytes.Repeat([]byte{0xAB, 0x00, 0x7F}, size/3+1)[:size]
		header := FileHeader{FileName: "report.pdf"}

		frame, err := EncodeFileFrame(header, payload)
		require.NoError(t, err)
		assert.Equal(t, byte(FileMarker), frame[0])

		msg, err := LegacyDecoder{}.Decode(frame)
		require.NoError(t, err, "size %d", size)
		require.NotNil(t, msg)
		assert.Equal(t, domain.InboundFile, msg.Kind)
		assert.Equal(t, "report.pdf", msg.FileName)
		assert.Len(t, msg.Data, size)
		assert.True(t, bytes.Equal(payload, msg.Data), "size %d", size)
	}
}

func TestFileFrame_HeaderLengths(t *testing.T) {
	// header JSON lengths landing on each base64 padding case
	for _, name := range []string{"a", "ab", "abc", "abcd", "résumé.txt"} {
		frame, err := EncodeFileFrame(FileHeader{FileName: name}, []byte("x"))
		require.NoError(t, err)

		header, payload, err := DecodeFileFrame(frame[1:])
		require.NoError(t, err, name)
		assert.Equal(t, name, header.FileName)
		assert.Equal(t, []byte("x"), payload)
	}
}

func TestDecodeFileFrame_Errors(t *testing.T) {
	valid, err := EncodeFileFrame(FileHeader{FileName: "a.txt"}, []byte("hello"))
	require.NoError(t, err)
	body := valid[1:]

	lengthOf := func(n uint32) string {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], n)
		return base64.StdEncoding.EncodeToString(b[:])
	}

	cases := map[string][]byte{
		"empty":                 {},
		"short length":          body[:5],
		"bad length base64":     []byte("!!!!!!!!rest"),
		"length not four bytes": []byte("AAAAAAAA"),
		"truncated header":      body[:lengthChars+4],
		"huge length":           []byte(lengthOf(0xFFFFFFFF) + "eyJ9"),
		"bad header base64":     []byte(lengthOf(3) + "****"),
		"bad header json":       []byte(lengthOf(3) + base64.StdEncoding.EncodeToString([]byte("{{{"))),
		"empty header":          []byte(lengthOf(0)),
		"bad payload base64":    append(append([]byte{}, body...), []byte("%%%")...),
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			header, payload, err := DecodeFileFrame(input)
			require.Error(t, err)
			assert.Empty(t, header.FileName)
			assert.Nil(t, payload)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, "file", de.Frame)
			assert.False(t, de.Syntax)
		})
	}
}

func TestLegacyDecoder_Text(t *testing.T) {
	d := LegacyDecoder{}

	msg, err := d.Decode([]byte(`{"content": "  hello  ", "other": 1}`))
	require.NoError(t, err)
	assert.Equal(t, domain.InboundText, msg.Kind)
	assert.Equal(t, "hello", msg.Content)

	msg, err = d.Decode([]byte(`{"content": "   "}`))
	require.NoError(t, err)
	assert.Empty(t, msg.Content)

	msg, err = d.Decode([]byte(`{"message": "ignored"}`))
	require.NoError(t, err)
	assert.Empty(t, msg.Content)

	msg, err = d.Decode(nil)
	assert.NoError(t, err)
	assert.Nil(t, msg)
}

func TestTextFrame_RoundTrip(t *testing.T) {
	for _, content := range []string{"hello", `Bob says "hi" <b>`, "héllo 世界", "B starts like a file"} {
		frame, err := EncodeTextFrame(content)
		require.NoError(t, err)

		msg, err := LegacyDecoder{}.Decode(frame)
		require.NoError(t, err, content)
		assert.Equal(t, domain.InboundText, msg.Kind)
		assert.Equal(t, content, msg.Content)
	}
}

func TestLegacyDecoder_TextErrors(t *testing.T) {
	tests := []struct {
		frame  string
		syntax bool
	}{
		{`not json`, true},
		{`{"content": "x"`, true},
		{`{"content": 5}`, false},
		{`{"content": {"text": "x"}}`, false},
		{`["content"]`, false},
		{`"content"`, false},
	}
	for _, tt := range tests {
		msg, err := LegacyDecoder{}.Decode([]byte(tt.frame))
		assert.Nil(t, msg)

		var de *DecodeError
		require.True(t, errors.As(err, &de), tt.frame)
		assert.Equal(t, tt.syntax, de.Syntax, tt.frame)
	}
}

func TestEnvelopeDecoder(t *testing.T) {
	d := EnvelopeDecoder{}

	frame, err := EncodeEnvelope(domain.NewTextMessage("hi"))
	require.NoError(t, err)
	msg, err := d.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, domain.InboundText, msg.Kind)
	assert.Equal(t, "hi", msg.Content)

	data := bytes.Repeat([]byte{1, 2, 3}, 30000)
	frame, err = EncodeEnvelope(domain.NewFileMessage("blob.bin", data))
	require.NoError(t, err)
	msg, err = d.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, domain.InboundFile, msg.Kind)
	assert.Equal(t, "blob.bin", msg.FileName)
	assert.Equal(t, data, msg.Data)

	// a leading B is not special in the envelope protocol
	_, err = d.Decode([]byte("Bxxxx"))
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.True(t, de.Syntax)

	for _, frame := range []string{`{"content":"x"}`, `{"kind":"video"}`, `{"kind":"file","file_name":"a","data":"@@"}`} {
		_, err := d.Decode([]byte(frame))
		require.True(t, errors.As(err, &de), frame)
		assert.False(t, de.Syntax, frame)
	}
}

func TestForProtocol(t *testing.T) {
	d, err := ForProtocol("legacy")
	require.NoError(t, err)
	assert.Equal(t, "legacy", d.Protocol())

	d, err = ForProtocol("envelope")
	require.NoError(t, err)
	assert.Equal(t, "envelope", d.Protocol())

	_, err = ForProtocol("v3")
	assert.ErrorIs(t, err, ErrUnknownProtocol)
}

func TestEncodeOutbound(t *testing.T) {
	assert.JSONEq(t, `{"error":"Invalid message format"}`, string(EncodeError("Invalid message format")))

	data, err := Encode(&domain.ChatFileEvent{Sender: "alice", FileName: "a.png"})
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	v, present := fields["message_id"]
	assert.True(t, present)
	assert.Nil(t, v)
}
