package dateparse

import (
	"errors"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ErrUnrecognized means the text could not be interpreted as a date.
var ErrUnrecognized = errors.New("unrecognized date")

// Layouts accepted before falling back to natural-language parsing.
var layouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006 15:04",
	"02.01.2006",
	"02/01/2006 15:04",
	"02/01/2006",
}

// Parser interprets free-text due dates. Exact layouts are tried first,
// then natural-language phrases ("tomorrow at 5pm").
type Parser struct {
	w *when.Parser
}

func New() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{w: w}
}

// Parse resolves text to a timestamp, truncated to the minute. Relative
// phrases are resolved against base. Returns ErrUnrecognized when the
// text cannot be interpreted.
func (p *Parser) Parse(text string, base time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, ErrUnrecognized
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, text, base.Location()); err == nil {
			return t.Truncate(time.Minute), nil
		}
	}

	r, err := p.w.Parse(text, base)
	if err != nil || r == nil {
		return time.Time{}, ErrUnrecognized
	}
	return r.Time.Truncate(time.Minute), nil
}
