package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoomKey(t *testing.T) {
	key, err := ParseRoomKey("w1_cat2_ch3")
	require.NoError(t, err)

	assert.Equal(t, "w1", key.WorkspaceID)
	assert.Equal(t, "cat2", key.CategoryID)
	assert.Equal(t, "ch3", key.ChannelID)
	assert.Equal(t, "w1_cat2_ch3", key.String())
	assert.Equal(t, "group_chat_w1_cat2_ch3", key.Topic())
}

func TestParseRoomKey_UUIDs(t *testing.T) {
	raw := "6f1c2a9e-5b1d-4e55-9a63-0c1f0e5f2b11_42_0b7c4d3e-8f21-4a9b-b2c4-7d5e6f708192"

	key, err := ParseRoomKey(raw)
	require.NoError(t, err)
	assert.Equal(t, "42", key.CategoryID)
	assert.Equal(t, raw, key.String())
}

func TestParseRoomKey_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"one part":     "channel",
		"two parts":    "w_c",
		"four parts":   "w_c_ch_extra",
		"empty middle": "w__ch",
		"empty last":   "w_c_",
		"only delims":  "__",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			key, err := ParseRoomKey(raw)
			require.Error(t, err)
			assert.True(t, key.IsZero())

			de, ok := AsDenyError(err)
			require.True(t, ok)
			assert.Equal(t, DenyInvalidRoomFormat, de.Reason)
		})
	}
}
