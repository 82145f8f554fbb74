package result

// Context is one retrieved passage handed to prompt assembly.
type Context struct {
	text     string
	score    float64
	sourceID string
}

// New creates a retrieved context.
func New(sourceID string, score float64, text string) Context {
	return Context{sourceID: sourceID, score: score, text: text}
}

// SourceID returns the identifier of the document the passage came from.
func (c *Context) SourceID() string { return c.sourceID }

// RelevanceScore returns the cosine similarity between the query and the document.
func (c *Context) RelevanceScore() float64 { return c.score }

// Text returns the passage text.
func (c *Context) Text() string { return c.text }
