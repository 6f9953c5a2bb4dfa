package sim

import (
	"log"
	"strings"
	"unicode"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// A Component is a element that is being simulated.
type Component interface {
	Named
	Hookable
}

// ComponentBase provides some functions that other component can use.
type ComponentBase struct {
	HookableBase

	name string
}

// NewComponentBase creates a new ComponentBase
func NewComponentBase(name string) *ComponentBase {
	NameMustBeValid(name)

	c := new(ComponentBase)
	c.name = name

	return c
}

// Name returns the name of the BasicComponent
func (c *ComponentBase) Name() string {
	return c.name
}

// NameMustBeValid panics if the given name is not a dot-separated list of
// identifiers, optionally indexed, such as `SoC.Bridge` or `Mem[2].Bank`.
func NameMustBeValid(name string) {
	if name == "" {
		log.Panic("name must not be empty")
	}

	for _, token := range strings.Split(name, ".") {
		if !isValidNameToken(token) {
			log.Panicf("name %q is not valid at token %q", name, token)
		}
	}
}

func isValidNameToken(token string) bool {
	elem, index, hasIndex := strings.Cut(token, "[")
	if elem == "" || !unicode.IsLetter(rune(elem[0])) {
		return false
	}

	for _, r := range elem {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	if !hasIndex {
		return true
	}

	digits, ok := strings.CutSuffix(index, "]")
	if !ok || digits == "" {
		return false
	}

	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}
