package api

import (
	"context"
	"net/http"
)

// HelpSource is a documentation excerpt backing a help answer
type HelpSource struct {
	Title   string  `json:"title"`
	Source  string  `json:"source"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// HelpAnswer is returned by the help Q&A endpoint
type HelpAnswer struct {
	Answer  string       `json:"answer"`
	Sources []HelpSource `json:"sources"`
}

// AskHelp asks the help center a question. maxSources <= 0 uses 3.
func (c *Client) AskHelp(ctx context.Context, question string, maxSources int) (*HelpAnswer, error) {
	if maxSources <= 0 {
		maxSources = 3
	}
	var out HelpAnswer
	err := c.doJSON(ctx, call{
		op:     "Help Center",
		method: http.MethodPost,
		path:   "/help/qa",
		body:   map[string]any{"question": question, "max_sources": maxSources},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
