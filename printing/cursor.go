package printing

// Cursor is the pagination state of one print job. It is owned by the caller and passed to
// every RenderPage call of the job; it must not be shared between jobs.
type Cursor struct {
	// NextRow is the absolute index of the first row not yet printed. It never decreases.
	NextRow int `json:"next_row"`
	// PageNumber is the number printed on the next page.
	PageNumber int `json:"page_number"`
}

func NewCursor(startFrom int) *Cursor {
	return &Cursor{PageNumber: startFrom}
}

// Reset restarts the job from the first row.
func (c *Cursor) Reset(startFrom int) {
	c.NextRow = 0
	c.PageNumber = startFrom
}
