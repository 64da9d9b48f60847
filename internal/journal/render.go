package journal

import (
	"fmt"
	"strings"

	"github.com/starford/scribe/internal/models"
)

// newPreamble returns the initial content of a freshly created partition.
func newPreamble(date string) string {
	return fmt.Sprintf("# %s\n\n---\n\n", date)
}

// renderBlock serializes a record into its partition block form: header
// line, id marker, body, optional sections, trailing delimiter.
func renderBlock(r *models.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s — %s\n", r.Time, r.Title)
	fmt.Fprintf(&sb, "<!-- id: %s -->\n", r.ID)

	if r.Body != "" {
		sb.WriteString("\n" + strings.TrimRight(r.Body, "\n") + "\n")
	}

	if len(r.Files) > 0 {
		sb.WriteString("\n**Files touched:**\n")
		for _, f := range r.Files {
			if f.Description != "" {
				fmt.Fprintf(&sb, "- `%s` — %s\n", f.Path, f.Description)
			} else {
				fmt.Fprintf(&sb, "- `%s`\n", f.Path)
			}
		}
	}

	if len(r.Archived) > 0 {
		sb.WriteString("\n**Archived:**\n")
		for _, a := range r.Archived {
			fmt.Fprintf(&sb, "- `%s` → [`%s`](assets/%s)", a.OriginalPath, a.AssetFilename, a.AssetFilename)
			if a.Description != "" {
				fmt.Fprintf(&sb, " — %s", a.Description)
			}
			sb.WriteString("\n")
		}
	}

	if len(r.Related) == 1 {
		fmt.Fprintf(&sb, "\n**Related:** %s\n", r.Related[0])
	} else if len(r.Related) > 1 {
		sb.WriteString("\n**Related:**\n")
		for _, id := range r.Related {
			fmt.Fprintf(&sb, "- %s\n", id)
		}
	}

	if r.Status != "" {
		fmt.Fprintf(&sb, "\n**Status:** %s\n", r.Status)
	}

	sb.WriteString("\n---\n")
	return sb.String()
}

// appendBlock appends a rendered block to existing partition content,
// inserting a blank-line separator when needed.
func appendBlock(content, block string) string {
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if content != "" && !strings.HasSuffix(content, "\n\n") {
		content += "\n"
	}
	return content + block
}

// injectID places the id marker immediately after the header line,
// dropping any stale id markers already present in the content.
func injectID(entry, id string) string {
	marker := fmt.Sprintf("<!-- id: %s -->", id)
	lines := strings.Split(entry, "\n")
	out := make([]string, 0, len(lines)+1)
	injected := false
	for _, line := range lines {
		if idCommentRe.MatchString(line) {
			continue
		}
		out = append(out, line)
		if !injected && headerLineRe.MatchString(line) {
			out = append(out, marker)
			injected = true
		}
	}
	if !injected {
		out = append([]string{marker}, out...)
	}
	return strings.Join(out, "\n")
}
