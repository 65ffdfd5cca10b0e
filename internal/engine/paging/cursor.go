package paging

// PageResult is one decoded page of a stream.
type PageResult struct {
	Items             []Record
	HasMore           bool
	ContinuationToken string
}

// PageCursor tracks the position of one query stream.
type PageCursor struct {
	Offset            int
	ContinuationToken string
	Exhausted         bool

	pageSize int
}

// NewCursor returns a cursor at offset zero that advances by pageSize per page.
func NewCursor(pageSize int) *PageCursor {
	return &PageCursor{pageSize: pageSize}
}

// Advance applies one page result. An empty page always ends the stream,
// whatever the server reported for has_more. A token, once issued, is kept
// across pages that omit it.
func (c *PageCursor) Advance(page PageResult) {
	if len(page.Items) == 0 {
		c.Exhausted = true
		return
	}
	c.Offset += c.pageSize
	c.Exhausted = !page.HasMore
	if page.ContinuationToken != "" {
		c.ContinuationToken = page.ContinuationToken
	}
}

// Stop marks the stream exhausted without advancing, used after a failed page.
func (c *PageCursor) Stop() { c.Exhausted = true }
