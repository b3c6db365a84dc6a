package printing

import (
	"strings"

	"golang.org/x/text/unicode/bidi"
)

type Direction string

const (
	DirectionRTL  Direction = "rtl"
	DirectionLTR  Direction = "ltr"
	DirectionAuto Direction = "auto"
)

func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", DirectionRTL:
		return DirectionRTL, true
	case DirectionLTR:
		return DirectionLTR, true
	case DirectionAuto:
		return DirectionAuto, true
	}
	return DirectionRTL, false
}

func (d Direction) IsRTL() bool {
	return d != DirectionLTR
}

// DetectDirection returns the dominant strong direction of texts by counting bidi classes.
// Texts without strong characters, and ties, resolve to RTL.
func DetectDirection(texts ...string) Direction {
	ltr, rtl := 0, 0
	for _, text := range texts {
		for _, r := range text {
			props, _ := bidi.LookupRune(r)
			switch props.Class() {
			case bidi.L:
				ltr++
			case bidi.R, bidi.AL:
				rtl++
			}
		}
	}
	if ltr > rtl {
		return DirectionLTR
	}
	return DirectionRTL
}

// ContainsRTL reports whether text has at least one strong right-to-left character.
func ContainsRTL(text string) bool {
	for _, r := range text {
		props, _ := bidi.LookupRune(r)
		if c := props.Class(); c == bidi.R || c == bidi.AL {
			return true
		}
	}
	return false
}
