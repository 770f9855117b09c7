package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigChannelDefaults(t *testing.T) {
	c := NewConfigChannel(testSchema(), map[string]any{"gain": 2.0}, nil)

	snap := c.Load()
	assert.Equal(t, 2.0, snap.Float("gain"))
	assert.Equal(t, 640, snap.Int("width"))
	assert.Equal(t, "hann", snap.String("window"))
}

func TestConfigChannelMultiKeyUpdateIsAtomic(t *testing.T) {
	c := NewConfigChannel(testSchema(), nil, nil)

	before := c.Load()
	c.Update(map[string]any{"gain": 4.0, "mix": 0.75})
	after := c.Load()

	// The old snapshot is untouched; the new one has both keys.
	assert.Equal(t, 1.0, before.Float("gain"))
	assert.Equal(t, 0.5, before.Float("mix"))
	assert.Equal(t, 4.0, after.Float("gain"))
	assert.Equal(t, 0.75, after.Float("mix"))
}

func TestConfigChannelIgnoresInvalidRuntimeValues(t *testing.T) {
	c := NewConfigChannel(testSchema(), nil, nil)

	// Unknown and out-of-range keys are skipped, valid keys in the same
	// call still apply.
	c.Update(map[string]any{
		"nonsense": 1,
		"mix":      9.0,
		"gain":     2.5,
	})
	snap := c.Load()
	assert.Equal(t, 2.5, snap.Float("gain"))
	assert.Equal(t, 0.5, snap.Float("mix"))
	_, present := snap["nonsense"]
	assert.False(t, present)
}

func TestConfigChannelConcurrentReadersNeverTear(t *testing.T) {
	c := NewConfigChannel(Schema{
		IntParam("a", 0, ""),
		IntParam("b", 0, ""),
	}, nil, nil)

	const writes = 2000
	var wg sync.WaitGroup

	// Writer publishes a and b always equal; a torn read would see them
	// differ.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= writes; i++ {
			c.Update(map[string]any{"a": i, "b": i})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := 0
			for i := 0; i < writes; i++ {
				snap := c.Load()
				a, b := snap.Int("a"), snap.Int("b")
				require.Equal(t, a, b, "torn snapshot")
				require.GreaterOrEqual(t, a, last, "snapshot went backwards")
				last = a
			}
		}()
	}
	wg.Wait()
}
