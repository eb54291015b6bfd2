package strategy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToJSONSchema(t *testing.T) {
	schema, err := ToJSONSchema(SMACrossoverConfig{})
	assert.NoError(t, err)

	var decoded map[string]any
	assert.NoError(t, json.Unmarshal([]byte(schema), &decoded))

	properties, ok := decoded["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, properties, "fast_period")
	assert.Contains(t, properties, "slow_period")
}
