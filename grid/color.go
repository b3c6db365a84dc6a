package grid

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/soderasen-au/go-common/util"
)

// Color is an opaque or translucent RGB color. A zero Color (A == 0) means "not set"
// and is replaced by a default when settings are resolved.
type Color struct {
	A int
	R int
	G int
	B int
}

var (
	Black     = Color{A: 255}
	White     = Color{A: 255, R: 255, G: 255, B: 255}
	LightGray = Color{A: 255, R: 240, G: 240, B: 240}
	TitleBlue = Color{A: 255, R: 41, G: 30, B: 118}

	PredefinedColorMap = map[string]Color{
		"yellow":       {A: 255, R: 255, G: 255, B: 0},
		"white":        {A: 255, R: 255, G: 255, B: 255},
		"red":          {A: 255, R: 128, G: 0, B: 0},
		"magenta":      {A: 255, R: 128, G: 0, B: 128},
		"lightred":     {A: 255, R: 255, G: 0, B: 0},
		"lightmagenta": {A: 255, R: 255, G: 0, B: 255},
		"lightgreen":   {A: 255, R: 0, G: 255, B: 0},
		"lightgray":    {A: 255, R: 192, G: 192, B: 192},
		"lightcyan":    {A: 255, R: 0, G: 255, B: 255},
		"lightblue":    {A: 255, R: 0, G: 0, B: 255},
		"green":        {A: 255, R: 0, G: 238, B: 0},
		"darkgray":     {A: 255, R: 128, G: 128, B: 128},
		"cyan":         {A: 255, R: 0, G: 128, B: 128},
		"brown":        {A: 255, R: 128, G: 128, B: 0},
		"blue":         {A: 255, R: 0, G: 0, B: 128},
		"black":        {A: 255, R: 0, G: 0, B: 0},
		"control":      {A: 255, R: 240, G: 240, B: 240},
	}
)

func RGB(r, g, b int) Color {
	return Color{A: 255, R: r, G: g, B: b}
}

func (c Color) IsZero() bool {
	return c.A == 0
}

// Or returns c, or def when c is not set.
func (c Color) Or(def Color) Color {
	if c.IsZero() {
		return def
	}
	return c
}

func (c Color) Luminance() float64 {
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255.0
}

// ContrastText picks black text on light backgrounds and white text on dark ones.
func (c Color) ContrastText() Color {
	if c.IsZero() || c.Luminance() > 0.5 {
		return Black
	}
	return White
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: uint8(c.A)}
}

func (c Color) String() string {
	if c.IsZero() {
		return ""
	}
	if c.A != 255 {
		return fmt.Sprintf("argb(%d,%d,%d,%d)", c.A, c.R, c.G, c.B)
	}
	return c.Hex()
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, res := ParseColor(string(text))
	if res != nil {
		return res
	}
	*c = parsed
	return nil
}

// ParseColor accepts `#RRGGBB`, `rgb(r,g,b)`, `argb(a,r,g,b)` and the predefined color names.
// An empty string yields the zero (unset) Color.
func ParseColor(t string) (Color, *util.Result) {
	t = strings.ToLower(strings.ReplaceAll(t, " ", ""))
	if t == "" {
		return Color{}, nil
	}

	switch {
	case strings.HasPrefix(t, "#"):
		hex := t[1:]
		if len(hex) != 6 {
			return Color{}, util.MsgError("ParseColor", "invalid hex color: "+t)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Color{}, util.Error("ParseColor", err)
		}
		return RGB(int(v>>16&0xFF), int(v>>8&0xFF), int(v&0xFF)), nil
	case strings.HasPrefix(t, "argb(") && strings.HasSuffix(t, ")"):
		cv, res := parseComponents(t[5:len(t)-1], 4)
		if res != nil {
			return Color{}, res.With("argb")
		}
		return Color{A: cv[0], R: cv[1], G: cv[2], B: cv[3]}, nil
	case strings.HasPrefix(t, "rgb(") && strings.HasSuffix(t, ")"):
		cv, res := parseComponents(t[4:len(t)-1], 3)
		if res != nil {
			return Color{}, res.With("rgb")
		}
		return RGB(cv[0], cv[1], cv[2]), nil
	}

	if c, ok := PredefinedColorMap[strings.Split(t, "(")[0]]; ok {
		return c, nil
	}
	return Color{}, util.MsgError("ParseColor", "unknown color: "+t)
}

func parseComponents(s string, n int) ([]int, *util.Result) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, util.MsgError("ParseColor", "invalid color sections")
	}
	ret := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, util.Error("ParseColor", err)
		}
		if v < 0 || v > 255 {
			return nil, util.MsgError("ParseColor", fmt.Sprintf("color component out of range: %d", v))
		}
		ret[i] = v
	}
	return ret, nil
}
