// Package components implements the "framix components" subcommand: a
// catalogue of registered component types and their parameters.
package components

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	_ "github.com/jlammi/framix/internal/components" // register built-in types
	"github.com/jlammi/framix/internal/engine"
)

// Command creates the components command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List registered component types and their parameters",
		Run: func(cmd *cobra.Command, args []string) {
			for _, reg := range engine.Registered() {
				spec := reg.New().Spec()
				fmt.Printf("%s\n  %s\n", reg.Type, reg.Description)
				printPorts("inputs", portNames(spec.Inputs))
				printPorts("outputs", portNames(spec.Outputs))
				for _, p := range spec.Params {
					fmt.Printf("  %-12s %-6s default=%-8v %s%s\n",
						p.Name, p.Kind, p.Default, rangeText(&p), p.Help)
				}
				fmt.Println()
			}
		},
	}
}

func portNames(ports []engine.PortSpec) []string {
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		name := p.Name
		if p.Optional {
			name += " (optional)"
		}
		if p.Static {
			name += " (static)"
		}
		names = append(names, name)
	}
	return names
}

func printPorts(kind string, names []string) {
	if len(names) > 0 {
		fmt.Printf("  %s: %s\n", kind, strings.Join(names, ", "))
	}
}

func rangeText(p *engine.ParamSpec) string {
	switch {
	case p.Bounded:
		return fmt.Sprintf("range [%g, %g]  ", p.Min, p.Max)
	case len(p.Choices) > 0:
		return fmt.Sprintf("choices %s  ", strings.Join(p.Choices, "|"))
	default:
		return ""
	}
}
