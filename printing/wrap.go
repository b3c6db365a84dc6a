package printing

import (
	"strings"
	"unicode"
)

// WrapText breaks text into lines no wider than maxWidth, measured with width. Lines break at
// spaces; a word wider than maxWidth is split between runes. Explicit newlines are kept.
func WrapText(text string, maxWidth float64, width func(string) float64) []string {
	if text == "" {
		return []string{""}
	}
	lines := make([]string, 0)
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		lines = append(lines, wrapParagraph(para, maxWidth, width)...)
	}
	return lines
}

func wrapParagraph(para string, maxWidth float64, width func(string) float64) []string {
	words := strings.FieldsFunc(para, unicode.IsSpace)
	if len(words) == 0 {
		return []string{""}
	}

	lines := make([]string, 0)
	line := ""
	for _, word := range words {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if width(candidate) <= maxWidth {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
			line = ""
		}
		if width(word) <= maxWidth {
			line = word
			continue
		}
		pieces := splitWord(word, maxWidth, width)
		lines = append(lines, pieces[:len(pieces)-1]...)
		line = pieces[len(pieces)-1]
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// splitWord always puts at least one rune on each line.
func splitWord(word string, maxWidth float64, width func(string) float64) []string {
	ret := make([]string, 0)
	cur := make([]rune, 0)
	for _, r := range word {
		next := append(cur, r)
		if len(cur) > 0 && width(string(next)) > maxWidth {
			ret = append(ret, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	return append(ret, string(cur))
}

// LayoutLines returns the lines text occupies under format: one line with NoWrap,
// wrapped lines otherwise.
func LayoutLines(text string, maxWidth float64, format TextFormat, width func(string) float64) []string {
	if format.NoWrap {
		return []string{strings.Join(strings.Fields(text), " ")}
	}
	return WrapText(text, maxWidth, width)
}

// MeasureLines measures text laid out under format, given a string width function and the
// height of one line.
func MeasureLines(text string, maxWidth, lineHeight float64, format TextFormat, width func(string) float64) Size {
	lines := LayoutLines(text, maxWidth, format, width)
	sz := Size{H: float64(len(lines)) * lineHeight}
	for _, l := range lines {
		if w := width(l); w > sz.W {
			sz.W = w
		}
	}
	return sz
}
