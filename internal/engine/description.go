// description.go: the declarative graph description consumed by the
// builder, plus its YAML form used by the CLI. The builder itself is
// serialization-agnostic; any caller may assemble a Description in code.
package engine

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jlammi/framix/internal/errors"
)

// ComponentDecl declares one component instance.
type ComponentDecl struct {
	Type   string         `yaml:"type"`
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params,omitempty"`
}

// EdgeDecl declares one connection as "instance.port" endpoints. The port
// part may be omitted when it is the default "input"/"output".
type EdgeDecl struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Description is the serialized form of a graph: an ordered component list
// and an edge list.
type Description struct {
	Components []ComponentDecl `yaml:"components"`
	Edges      []EdgeDecl      `yaml:"connections"`
}

// LoadDescription reads a YAML graph description from path.
func LoadDescription(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Newf("reading graph description: %w", err).
			Component("engine").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return ParseDescription(data)
}

// ParseDescription parses a YAML graph description.
func ParseDescription(data []byte) (*Description, error) {
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, errors.Newf("parsing graph description: %w", err).
			Component("engine").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return &desc, nil
}

// Marshal renders the description back to YAML.
func (d *Description) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// endpoint is a parsed "instance.port" edge end.
type endpoint struct {
	instance string
	port     string
}

func (e endpoint) String() string {
	return e.instance + "." + e.port
}

// parseEndpoint splits "instance.port", defaulting the port name.
func parseEndpoint(s, defaultPort string) (endpoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return endpoint{}, fmt.Errorf("empty edge endpoint")
	}
	instance, port, found := strings.Cut(s, ".")
	if !found {
		port = defaultPort
	}
	if instance == "" || port == "" {
		return endpoint{}, fmt.Errorf("malformed edge endpoint %q", s)
	}
	return endpoint{instance: instance, port: port}, nil
}
