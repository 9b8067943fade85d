package calendar

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer = bluemonday.StrictPolicy()

	spaceRuns     = regexp.MustCompile(`[ \t]+`)
	blankLineRuns = regexp.MustCompile(`\n{3,}`)
	lineBreakTags = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockCloseTag = regexp.MustCompile(`(?i)</(p|div|li|ul|ol|h[1-6])>`)
)

// NormalizeEvent converts an adapter-mapped event into its canonical form:
// instants in UTC tagged "UTC", date-only values untouched, free-text
// bodies stripped of markup. Deterministic and side-effect free, so
// applying it twice is the same as applying it once.
func NormalizeEvent(e Event) Event {
	e.Title = strings.TrimSpace(e.Title)
	e.Description = CleanText(e.Description)
	e.Start = normalizeTime(e.Start)
	e.End = normalizeTime(e.End)
	return e
}

// NormalizeTask is the task counterpart of NormalizeEvent.
func NormalizeTask(t Task) Task {
	t.Title = strings.TrimSpace(t.Title)
	t.Notes = CleanText(t.Notes)
	t.IsTask = true
	if t.Due != nil {
		due := t.Due.UTC()
		t.Due = &due
	}
	return t
}

func normalizeTime(t EventTime) EventTime {
	if t.IsDateOnly() || t.DateTime == nil {
		return t
	}
	utc := t.DateTime.UTC()
	t.DateTime = &utc
	t.TimeZone = "UTC"
	return t
}

// CleanText strips markup from a free-text body and collapses runs of
// whitespace and blank lines.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	// <br> and block boundaries become line breaks before tags are dropped,
	// otherwise adjacent words fuse together.
	s = lineBreakTags.ReplaceAllString(s, "\n")
	s = blockCloseTag.ReplaceAllString(s, "\n")
	s = html.UnescapeString(sanitizer.Sanitize(s))
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRuns.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
