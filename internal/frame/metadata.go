package frame

import (
	"fmt"
	"sort"
	"strings"
)

// Metadata carries per-frame key/value text fields and a free-text audit
// trail. Each transform appends one audit entry per produced frame
// describing the operation and its effective parameters, so a frame arriving
// at a sink records the full processing chain that produced it.
type Metadata struct {
	fields map[string]string
	audit  string
}

// NewMetadata returns empty metadata.
func NewMetadata() *Metadata {
	return &Metadata{fields: make(map[string]string)}
}

// Get returns the value for key and whether it was present.
func (m *Metadata) Get(key string) (string, bool) {
	v, ok := m.fields[key]
	return v, ok
}

// GetDefault returns the value for key, or def if absent.
func (m *Metadata) GetDefault(key, def string) string {
	if v, ok := m.fields[key]; ok {
		return v
	}
	return def
}

// Set stores a key/value field.
func (m *Metadata) Set(key, value string) {
	m.fields[key] = value
}

// Keys returns all field keys in sorted order.
func (m *Metadata) Keys() []string {
	keys := make([]string, 0, len(m.fields))
	for k := range m.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of key/value fields.
func (m *Metadata) Len() int {
	return len(m.fields)
}

// Audit returns the accumulated audit trail.
func (m *Metadata) Audit() string {
	return m.audit
}

// AuditEntries returns the number of entries in the audit trail. Every
// AppendAudit call adds exactly one entry; an entry is a non-indented header
// line followed by any number of indented detail lines.
func (m *Metadata) AuditEntries() int {
	n := 0
	for _, line := range strings.Split(m.audit, "\n") {
		if line == "" {
			continue
		}
		if line[0] != ' ' && line[0] != '\t' {
			n++
		}
	}
	return n
}

// AppendAudit appends one entry to the audit trail. The first line is the
// entry header; detail lines below it must be indented (see IndentBlock) so
// nested provenance, such as a filter frame's own audit, stays readable.
func (m *Metadata) AppendAudit(entry string) {
	entry = strings.TrimRight(entry, "\n")
	m.audit += entry + "\n"
}

// Auditf appends one formatted entry to the audit trail.
func (m *Metadata) Auditf(format string, args ...any) {
	m.AppendAudit(fmt.Sprintf(format, args...))
}

// IndentBlock indents every line of block by four spaces, for embedding one
// audit trail inside another entry.
func IndentBlock(block string) string {
	block = strings.TrimRight(block, "\n")
	if block == "" {
		return ""
	}
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}

// Copy returns a deep copy of the metadata, fields and audit trail included.
func (m *Metadata) Copy() *Metadata {
	c := &Metadata{
		fields: make(map[string]string, len(m.fields)),
		audit:  m.audit,
	}
	for k, v := range m.fields {
		c.fields[k] = v
	}
	return c
}
