package domain

import "strings"

// Mode enumerates the fixed set of marketing variants a seller can request.
type Mode string

const (
	ModeMainWhite      Mode = "main_white"
	ModeLifestyle      Mode = "lifestyle"
	ModeFeatureCallout Mode = "feature_callout"
	ModePackaging      Mode = "packaging"
)

// Modes lists every supported mode in a stable order.
func Modes() []Mode {
	return []Mode{ModeMainWhite, ModeLifestyle, ModeFeatureCallout, ModePackaging}
}

// ParseMode validates a free-form mode string against the fixed enum.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMainWhite:
		return ModeMainWhite, nil
	case ModeLifestyle:
		return ModeLifestyle, nil
	case ModeFeatureCallout:
		return ModeFeatureCallout, nil
	case ModePackaging:
		return ModePackaging, nil
	default:
		return "", ErrInvalidMode
	}
}
