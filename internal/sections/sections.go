// Package sections derives an addressable section tree from a document's
// markdown body. The index is recomputed from the stored text on demand; it
// is a view, never persisted state.
package sections

import (
	"strconv"
	"strings"
)

// Section is one addressable subrange of a document body.
type Section struct {
	// ID is the slug derived from the heading text, lowercased with
	// non-alphanumeric runs collapsed to single hyphens. Duplicate slugs
	// within one document get -2, -3 suffixes so ids stay unique.
	ID string `json:"id"`

	// Ordinal is the 1-based heading occurrence index. It is stable under
	// heading rewording, unlike the slug id.
	Ordinal int `json:"ordinal"`

	// Title is the heading text as written.
	Title string `json:"title"`

	// Level is the heading depth, 1 through 6.
	Level int `json:"level"`

	// ParentID is the id of the nearest preceding section with a strictly
	// smaller level; empty for top sections.
	ParentID string `json:"parent_id"`

	// Content is every line after the heading up to the next heading of
	// any level, without the trailing newline. A deeper subheading starts
	// its own section rather than extending the parent's content.
	Content string `json:"content"`
}

// Parse returns the ordered section list for a markdown body. Headings
// inside fenced code blocks do not start sections.
func Parse(body string) []Section {
	var out []Section
	seen := map[string]int{}

	type open struct {
		idx   int
		level int
	}
	var stack []open

	lines := strings.Split(body, "\n")
	var content []string
	inFence := false
	fenceMarker := ""

	flush := func() {
		if len(out) == 0 {
			content = nil
			return
		}
		out[len(out)-1].Content = strings.TrimRight(strings.Join(content, "\n"), "\n")
		content = nil
	}

	for _, line := range lines {
		if marker := fenceDelimiter(line); marker != "" {
			if !inFence {
				inFence = true
				fenceMarker = marker
			} else if marker == fenceMarker {
				inFence = false
				fenceMarker = ""
			}
			content = append(content, line)
			continue
		}

		level, title, ok := headingLine(line)
		if !ok || inFence {
			content = append(content, line)
			continue
		}

		flush()

		// Pop open sections at the same or a deeper level.
		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}

		id := Slugify(title)
		seen[id]++
		if n := seen[id]; n > 1 {
			id = uniqueSlug(id, n, seen)
		}

		sec := Section{
			ID:      id,
			Ordinal: len(out) + 1,
			Title:   title,
			Level:   level,
		}
		if len(stack) > 0 {
			sec.ParentID = out[stack[len(stack)-1].idx].ID
		}
		out = append(out, sec)
		stack = append(stack, open{idx: len(out) - 1, level: level})
	}
	flush()

	return out
}

// Find returns the section with the given id, or nil if the body has no
// such section.
func Find(body, id string) *Section {
	for _, s := range Parse(body) {
		if s.ID == id {
			sec := s
			return &sec
		}
	}
	return nil
}

// Slugify normalizes heading text into a section id: lowercased, with every
// run of non-alphanumeric characters collapsed to a single hyphen.
func Slugify(title string) string {
	slug := make([]rune, 0, len(title))
	lastDash := false
	for _, ch := range strings.ToLower(strings.TrimSpace(title)) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			slug = append(slug, ch)
			lastDash = false
			continue
		}
		if !lastDash {
			slug = append(slug, '-')
			lastDash = true
		}
	}
	text := strings.Trim(string(slug), "-")
	if text == "" {
		return "section"
	}
	return text
}

// uniqueSlug appends the smallest free -N suffix. The suffixed form is also
// claimed in seen so a literal "a-2" heading cannot collide with it.
func uniqueSlug(base string, n int, seen map[string]int) string {
	for {
		candidate := base + "-" + strconv.Itoa(n)
		if seen[candidate] == 0 {
			seen[candidate] = 1
			return candidate
		}
		n++
	}
}

// headingLine parses an ATX heading: one to six # characters followed by a
// space and the title.
func headingLine(line string) (level int, title string, ok bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return 0, "", false
	}
	i := 0
	for i < len(trimmed) && trimmed[i] == '#' {
		i++
	}
	if i == 0 || i > 6 {
		return 0, "", false
	}
	rest := trimmed[i:]
	if rest != "" && !strings.HasPrefix(rest, " ") && !strings.HasPrefix(rest, "\t") {
		return 0, "", false
	}
	title = strings.TrimSpace(rest)
	if title == "" {
		return 0, "", false
	}
	return i, title, true
}

// fenceDelimiter reports the opening characters of a code-fence line, or ""
// when the line is not a fence delimiter.
func fenceDelimiter(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	for _, marker := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, marker) {
			return marker
		}
	}
	return ""
}
