package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("object keeps key order and exact numbers", func(t *testing.T) {
		v, err := Parse([]byte(`{"z":12345678901234567890,"a":[true,null,"s"],"m":{}}`))

		require.NoError(t, err)
		require.Equal(t, Object, v.Kind)
		require.Len(t, v.Members, 3)
		assert.Equal(t, "z", v.Members[0].Key)
		assert.Equal(t, json.Number("12345678901234567890"), v.Members[0].Value.Number)

		arr := v.Members[1].Value
		require.Equal(t, Array, arr.Kind)
		require.Len(t, arr.Items, 3)
		assert.Equal(t, Bool, arr.Items[0].Kind)
		assert.True(t, arr.Items[0].Bool)
		assert.Equal(t, Null, arr.Items[1].Kind)
		assert.Equal(t, "s", arr.Items[2].String)

		assert.Equal(t, Object, v.Members[2].Value.Kind)
		assert.Empty(t, v.Members[2].Value.Members)
	})

	t.Run("scalar root", func(t *testing.T) {
		v, err := Parse([]byte(` "hello" `))
		require.NoError(t, err)
		assert.Equal(t, String, v.Kind)
	})

	invalid := map[string]string{
		"empty":            "",
		"plain text":       "hello world",
		"trailing garbage": `{"a":1} x`,
		"two documents":    `{"a":1}{"b":2}`,
		"unterminated":     `{"a":[1,2}`,
		"form encoded":     "a=1&b=2",
	}
	for name, body := range invalid {
		t.Run("invalid - "+name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestParse_Depth(t *testing.T) {
	nested := func(open, close string, depth int) []byte {
		return []byte(strings.Repeat(open, depth) + strings.Repeat(close, depth))
	}

	t.Run("at the limit", func(t *testing.T) {
		_, err := Parse(nested("[", "]", MaxDepth))
		require.NoError(t, err)
	})

	t.Run("arrays past the limit", func(t *testing.T) {
		_, err := Parse(nested("[", "]", MaxDepth+1))
		assert.ErrorIs(t, err, ErrTooDeep)
	})

	t.Run("objects past the limit", func(t *testing.T) {
		_, err := Parse(nested(`{"a":`, "}", MaxDepth+1))
		assert.ErrorIs(t, err, ErrTooDeep)
	})

	t.Run("far past the limit fails fast", func(t *testing.T) {
		_, err := Parse(nested("[", "]", 200000))
		assert.ErrorIs(t, err, ErrTooDeep)
	})
}

func TestKind_MarshalText(t *testing.T) {
	out, err := json.Marshal([]Kind{Null, Bool, Number, String, Array, Object})

	require.NoError(t, err)
	assert.JSONEq(t, `["null","boolean","number","string","array","object"]`, string(out))
}
