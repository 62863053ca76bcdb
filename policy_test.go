package giveme_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/giveme"
)

func TestPolicy(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		tests := []struct {
			policy   giveme.Policy
			expected string
		}{
			{giveme.Transient, "Transient"},
			{giveme.Singleton, "Singleton"},
			{giveme.ThreadLocal, "ThreadLocal"},
			{giveme.Policy(999), "Unknown(999)"},
		}

		for _, tt := range tests {
			assert.Equal(t, tt.expected, tt.policy.String())
		}
	})

	t.Run("IsValid", func(t *testing.T) {
		assert.True(t, giveme.Transient.IsValid())
		assert.True(t, giveme.ThreadLocal.IsValid())
		assert.False(t, giveme.Policy(-1).IsValid())
		assert.False(t, giveme.Policy(3).IsValid())
	})

	t.Run("UnmarshalText", func(t *testing.T) {
		for text, want := range map[string]giveme.Policy{
			"transient":    giveme.Transient,
			"Singleton":    giveme.Singleton,
			"thread-local": giveme.ThreadLocal,
			"thread_local": giveme.ThreadLocal,
			"threadlocal":  giveme.ThreadLocal,
		} {
			var p giveme.Policy
			require.NoError(t, p.UnmarshalText([]byte(text)), text)
			assert.Equal(t, want, p, text)
		}

		var p giveme.Policy
		err := p.UnmarshalText([]byte("scoped"))
		var pe giveme.PolicyError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "scoped", pe.Value)
	})

	t.Run("MarshalText invalid", func(t *testing.T) {
		_, err := giveme.Policy(42).MarshalText()
		assert.Error(t, err)
	})

	t.Run("JSON", func(t *testing.T) {
		type config struct {
			Policy giveme.Policy `json:"policy"`
		}

		data, err := json.Marshal(config{Policy: giveme.ThreadLocal})
		require.NoError(t, err)
		assert.JSONEq(t, `{"policy":"ThreadLocal"}`, string(data))

		var c config
		require.NoError(t, json.Unmarshal([]byte(`{"policy":"singleton"}`), &c))
		assert.Equal(t, giveme.Singleton, c.Policy)

		assert.Error(t, json.Unmarshal([]byte(`{"policy":1}`), &c))
		assert.Error(t, json.Unmarshal([]byte(`{"policy":"forever"}`), &c))
	})
}
