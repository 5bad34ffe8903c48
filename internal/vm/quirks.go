package vm

import (
	"fmt"
	"strings"
)

// Mode selects the semantics of the instructions whose behaviour diverged
// between the COSMAC-VIP interpreter and later ones:
//
//	8xy6/8xyE  legacy shifts Vy into Vx, modern shifts Vx in place
//	Fx55/Fx65  legacy advances I by x+1, modern leaves I unchanged
//	Bnnn       legacy adds V0, modern adds Vx (x is the top nibble of nnn)
type Mode uint8

const (
	ModeModern Mode = iota
	ModeLegacy
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "modern":
		return ModeModern, nil
	case "legacy", "vip", "cosmac":
		return ModeLegacy, nil
	default:
		return 0, fmt.Errorf("unknown compatibility mode %q", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeModern:
		return "modern"
	case ModeLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}
