package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{
		IntRange("width", 640, 1, 4096, "picture width"),
		FloatParam("gain", 1.0, "multiplier"),
		FloatRange("mix", 0.5, 0.0, 1.0, "blend weight"),
		BoolParam("loop", false, "restart at end"),
		EnumParam("window", "hann", []string{"hann", "kaiser"}, "window"),
		StringParam("label", "", "free text"),
	}
}

func TestSchemaDefaults(t *testing.T) {
	defaults := testSchema().Defaults()
	assert.Equal(t, 640, defaults["width"])
	assert.Equal(t, 1.0, defaults["gain"])
	assert.Equal(t, "hann", defaults["window"])
	assert.Len(t, defaults, 6)
}

func TestSchemaCoercion(t *testing.T) {
	schema := testSchema()

	tests := []struct {
		name  string
		param string
		value any
		want  any
		ok    bool
	}{
		{"int from float", "width", 800.0, 800, true},
		{"int from string", "width", "720", 720, true},
		{"int out of range", "width", 100000, nil, false},
		{"float from int", "gain", 2, 2.0, true},
		{"float in range", "mix", 0.25, 0.25, true},
		{"float out of range", "mix", 1.5, nil, false},
		{"bool from string", "loop", "true", true, true},
		{"enum valid", "window", "kaiser", "kaiser", true},
		{"enum invalid", "window", "hamming", nil, false},
		{"string", "label", "test", "test", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := schema.Find(tt.param)
			require.NotNil(t, spec)
			got, err := spec.Coerce(tt.value)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceAllCollectsEveryViolation(t *testing.T) {
	schema := testSchema()

	_, err := schema.CoerceAll(map[string]any{
		"width":   -5,        // out of range
		"window":  "boxcar",  // not a choice
		"unknown": 1,         // undeclared
		"gain":    2.0,       // fine
	})
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "width")
	assert.Contains(t, msg, "window")
	assert.Contains(t, msg, "unknown")
}

func TestCoerceAllCanonicalizes(t *testing.T) {
	schema := testSchema()

	values, err := schema.CoerceAll(map[string]any{"width": "1024", "gain": 3})
	require.NoError(t, err)
	assert.Equal(t, 1024, values["width"])
	assert.Equal(t, 3.0, values["gain"])
}
