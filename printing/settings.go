package printing

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-gridprint/grid"
)

type TitleBlock struct {
	Header    string     `json:"header,omitempty" yaml:"header,omitempty"`
	SubTitle1 string     `json:"sub_title_1,omitempty" yaml:"sub_title_1,omitempty"`
	SubTitle2 string     `json:"sub_title_2,omitempty" yaml:"sub_title_2,omitempty"`
	Font      *grid.Font `json:"font,omitempty" yaml:"font,omitempty"`
	Color     grid.Color `json:"color,omitempty" yaml:"color,omitempty"`
	LogoFile  string     `json:"logo_file,omitempty" yaml:"logo_file,omitempty"`
	Logo      *Image     `json:"-" yaml:"-"`
}

type HeaderStyle struct {
	Font  *grid.Font `json:"font,omitempty" yaml:"font,omitempty"`
	Color grid.Color `json:"color,omitempty" yaml:"color,omitempty"`
}

type PageNumber struct {
	Show *bool `json:"show,omitempty" yaml:"show,omitempty"`
	// StartFrom is the number of the first page; any value is allowed, unset means 1.
	StartFrom *int `json:"start_from,omitempty" yaml:"start_from,omitempty"`
}

// Settings is the configuration surface of a render session. Unset fields take their
// defaults in Resolve.
type Settings struct {
	Title      TitleBlock  `json:"title" yaml:"title"`
	Header     HeaderStyle `json:"header" yaml:"header"`
	PageNumber PageNumber  `json:"page_number" yaml:"page_number"`
	// Font is used for the data cells.
	Font       *grid.Font `json:"font,omitempty" yaml:"font,omitempty"`
	WrapText   *bool      `json:"wrap_text,omitempty" yaml:"wrap_text,omitempty"`
	Direction  Direction  `json:"direction,omitempty" yaml:"direction,omitempty"`
	Background grid.Color `json:"background,omitempty" yaml:"background,omitempty"`
}

// Session holds the settings resolved against a grid; it does not change during a print job.
type Session struct {
	Header     string
	SubTitle1  string
	SubTitle2  string
	TitleFont  grid.Font
	TitleColor grid.Color
	Logo       *Image

	HeaderFont  grid.Font
	HeaderColor grid.Color

	CellFont grid.Font

	ShowPageNumber bool
	StartFrom      int

	Wrap       bool
	Direction  Direction
	Background grid.Color
}

// Format returns the text format flags shared by every cell and column header of the session.
func (s *Session) Format(align Align) TextFormat {
	return TextFormat{
		Align:     align,
		LineAlign: AlignCenter,
		RTL:       s.Direction.IsRTL(),
		NoWrap:    !s.Wrap,
	}
}

// Resolve applies the defaults once: title, header and cell fonts fall back to the grid font,
// the header color to the grid's header color, the title color to black, page numbering to
// shown starting at 1, wrapping to on, direction to right-to-left. An auto direction is
// decided here from the title and column header texts.
func (s Settings) Resolve(g *grid.Snapshot) *Session {
	gridFont := g.Font.Or(grid.DefaultFont())
	ss := &Session{
		Header:         s.Title.Header,
		SubTitle1:      s.Title.SubTitle1,
		SubTitle2:      s.Title.SubTitle2,
		TitleFont:      fontOr(s.Title.Font, gridFont),
		TitleColor:     s.Title.Color.Or(grid.Black),
		Logo:           s.Title.Logo,
		HeaderFont:     fontOr(s.Header.Font, gridFont),
		HeaderColor:    s.Header.Color.Or(g.HeaderColor.Or(grid.LightGray)),
		CellFont:       fontOr(s.Font, gridFont),
		ShowPageNumber: boolOr(s.PageNumber.Show, true),
		StartFrom:      intOr(s.PageNumber.StartFrom, 1),
		Wrap:           boolOr(s.WrapText, true),
		Background:     s.Background.Or(grid.White),
	}

	dir, _ := ParseDirection(string(s.Direction))
	if dir == DirectionAuto {
		texts := []string{s.Title.Header, s.Title.SubTitle1, s.Title.SubTitle2}
		for _, c := range g.Columns {
			texts = append(texts, c.Header)
		}
		dir = DetectDirection(texts...)
	}
	ss.Direction = dir
	return ss
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func intOr(i *int, def int) int {
	if i == nil {
		return def
	}
	return *i
}

func fontOr(f *grid.Font, def grid.Font) grid.Font {
	if f == nil {
		return def
	}
	return f.Or(def)
}

// LoadLogo reads LogoFile into Logo, unless a logo is already set.
func (t *TitleBlock) LoadLogo() *util.Result {
	if t.Logo != nil || t.LogoFile == "" {
		return nil
	}
	data, err := os.ReadFile(t.LogoFile)
	if err != nil {
		return util.Error("ReadLogo", err)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(t.LogoFile)), ".")
	switch ext {
	case "jpeg":
		ext = "jpg"
	case "png", "jpg", "gif":
	default:
		return util.MsgError("ReadLogo", "unsupported logo type: "+ext)
	}
	t.Logo = &Image{Name: filepath.Base(t.LogoFile), Type: ext, Data: data}
	return nil
}
