package network

import "fmt"

// Mode selects what a forward pass reports.
type Mode int

const (
	// ModeClass reports the most likely class per row.
	ModeClass Mode = iota
	// ModeProb also reports the output probabilities.
	ModeProb
	// ModeAll also keeps every layer activation.
	ModeAll
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeClass:
		return "class"
	case ModeProb:
		return "prob"
	case ModeAll:
		return "all"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a wire name to a Mode. The empty string means ModeClass.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "class":
		return ModeClass, nil
	case "prob":
		return ModeProb, nil
	case "all":
		return ModeAll, nil
	default:
		return ModeClass, fmt.Errorf("unknown mode %q (want class, prob or all)", s)
	}
}
