package plugin

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckRange(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		fails bool
	}{
		{"lower bound", 10, false},
		{"upper bound", 1000, false},
		{"below", 9.99, true},
		{"above", 1000.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRange("maxRadius", tt.value, 10, 1000, "Radius must be between 10 and 1000 meters")
			if !tt.fails {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, HasCode(err, ErrCodeOutOfRange))
			require.Equal(t, "Radius must be between 10 and 1000 meters", UserMessage(err))
		})
	}
}

func TestConfigErrorUserMessage(t *testing.T) {
	var v map[string]any
	cause := json.Unmarshal([]byte("{"), &v)
	err := NewConfigError(cause)

	require.True(t, HasCode(err, ErrCodeInvalidConfig))
	require.Contains(t, UserMessage(err), "Failed to parse config")
	require.False(t, HasCode(err, ErrCodeOutOfRange))
}

func TestUserMessagePlainError(t *testing.T) {
	require.Equal(t, "boom", UserMessage(fmt.Errorf("boom")))
	require.False(t, HasCode(fmt.Errorf("boom"), ErrCodeInvalidConfig))
}
