package common

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexTimeFormats(t *testing.T) {
	cases := []string{
		`"2026-03-01T02:00:00Z"`,
		`"2026-03-01 10:00:00"`,
		`"2026-03-01 10:00"`,
		`"2026-03-01"`,
	}
	for _, c := range cases {
		var ft FlexTime
		require.NoError(t, json.Unmarshal([]byte(c), &ft), c)
		assert.Equal(t, 2026, ft.Year())
		assert.Equal(t, time.March, ft.Month())
	}
}

func TestFlexTimeEmpty(t *testing.T) {
	var ft FlexTime
	require.NoError(t, json.Unmarshal([]byte(`null`), &ft))
	assert.Nil(t, ft.ToTime())

	out, err := json.Marshal(ft)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestFlexTimeInvalid(t *testing.T) {
	var ft FlexTime
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ft))
}
