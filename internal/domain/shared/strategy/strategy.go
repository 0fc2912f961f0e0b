// Package strategy defines the pluggable steps of final price evaluation.
package strategy

// Strategy is a named unit of pricing behavior
type Strategy interface {
	Name() string
	Description() string
}

// Descriptor carries a strategy's name and description. Embed it to
// satisfy Strategy.
type Descriptor struct {
	name        string
	description string
}

// Describe creates a Descriptor
func Describe(name, description string) Descriptor {
	return Descriptor{name: name, description: description}
}

func (d Descriptor) Name() string        { return d.name }
func (d Descriptor) Description() string { return d.description }
