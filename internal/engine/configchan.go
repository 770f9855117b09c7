// configchan.go: non-blocking delivery of parameter updates into a running
// component. Writers merge a new immutable snapshot and publish it through a
// single atomic pointer; the component loads the full latest snapshot at the
// start of each work iteration, so a multi-key update is always observed in
// full or not at all.
package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// ConfigChannel carries parameter updates from outside threads into one
// component. Writes never block the pipeline; reads never tear.
type ConfigChannel struct {
	schema  Schema
	current atomic.Pointer[Snapshot]
	writeMu sync.Mutex // serializes concurrent writers' read-merge-store
	logger  *slog.Logger
}

// NewConfigChannel creates a channel whose initial snapshot holds the
// schema defaults overlaid with the (already coerced) initial values.
func NewConfigChannel(schema Schema, initial map[string]any, logger *slog.Logger) *ConfigChannel {
	values := schema.Defaults()
	for name, value := range initial {
		values[name] = value
	}
	c := &ConfigChannel{schema: schema, logger: logger}
	snap := Snapshot(values)
	c.current.Store(&snap)
	return c
}

// Load returns the latest complete snapshot. The returned map must be
// treated as read-only; it is shared with other readers.
func (c *ConfigChannel) Load() Snapshot {
	return *c.current.Load()
}

// Update merges values into a copy of the current snapshot and publishes
// it. Unknown names and out-of-range values are logged and skipped; valid
// keys in the same call still apply, together, in one publish.
func (c *ConfigChannel) Update(values map[string]any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	cur := *c.current.Load()
	next := make(Snapshot, len(cur)+len(values))
	for name, value := range cur {
		next[name] = value
	}

	changed := false
	for name, value := range values {
		spec := c.schema.Find(name)
		if spec == nil {
			if c.logger != nil {
				c.logger.Warn("ignoring unknown parameter", "parameter", name)
			}
			continue
		}
		coerced, err := spec.Coerce(value)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("ignoring invalid parameter value", "parameter", name, "error", err)
			}
			continue
		}
		next[name] = coerced
		changed = true
	}
	if changed {
		c.current.Store(&next)
	}
}
