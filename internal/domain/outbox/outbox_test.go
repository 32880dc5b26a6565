package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinged struct {
	Target string `json:"target"`
}

func (pinged) EventName() string { return "test.pinged" }

func TestSeal(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	env, err := Seal("evt-1", pinged{Target: "x"}, "abc", now)
	require.NoError(t, err)

	assert.Equal(t, "test.pinged", env.Name)
	assert.Equal(t, "abc", env.TraceID)
	assert.JSONEq(t, `{"target":"x"}`, string(env.Payload))

	b, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"occurred_at":"2026-01-02T03:04:05Z"`)
}
