package config

// Mode selects how frames are presented
type Mode string

const (
	ModeAuto     Mode = "auto"     // follow the bootstrap recommendation
	ModeHeadless Mode = "headless" // software rendering to PNG, observers only
	ModeWindow   Mode = "window"   // interactive window with GPU drawing
)

// ParseMode converts a string to Mode, defaulting to ModeAuto
func ParseMode(s string) Mode {
	switch s {
	case "headless":
		return ModeHeadless
	case "window":
		return ModeWindow
	default:
		return ModeAuto
	}
}

// Level returns numeric level for comparison (higher = more capabilities)
func (m Mode) Level() int {
	switch m {
	case ModeHeadless:
		return 0
	case ModeWindow:
		return 1
	default:
		return 0
	}
}

// Allows returns true if this mode allows the given mode's capabilities
func (m Mode) Allows(required Mode) bool {
	return m.Level() >= required.Level()
}
