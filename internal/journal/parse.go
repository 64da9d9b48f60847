package journal

import (
	"regexp"
	"strings"
)

var (
	// headerRe matches a block header line: "## HH:MM — Title".
	headerRe = regexp.MustCompile(`(?m)^## (\d{2}:\d{2}) — (.+)$`)
	// headerLineRe matches a single line already split out of a block.
	headerLineRe = regexp.MustCompile(`^## \d{2}:\d{2} — .+$`)
	// idCommentRe matches the id marker injected after the header.
	idCommentRe = regexp.MustCompile(`<!-- id: ([\d-]+) -->`)
	// archiveLinkRe matches an asset reference: [`filename`](assets/filename).
	archiveLinkRe = regexp.MustCompile("\\[`[^`]+`\\]\\(assets/([^)]+)\\)")
	// relatedSectionRe captures the text of a **Related:** section up to the
	// next blank line, section, or delimiter.
	relatedSectionRe = regexp.MustCompile(`(?s)\*\*Related:\*\*(.+?)(\n\n|\n\*\*|\n---|\z)`)
	// relatedIDRe matches record identifiers inside a Related section.
	relatedIDRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}-\d{2}-\d{2}(?:-\d{2,})?`)
	// statusRe captures the value of a **Status:** section.
	statusRe = regexp.MustCompile(`\*\*Status:\*\*\s*(.+)`)
	// partitionNameRe matches a partition filename: YYYY-MM-DD.md.
	partitionNameRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\.md$`)
)

// Block is one verbatim record block within a partition file. Raw spans
// from the header line to the start of the next header (or end of file),
// so untouched blocks round-trip byte-for-byte.
type Block struct {
	Time  string
	Title string
	ID    string
	Raw   string
}

// AssetFilenames returns the asset store filenames referenced by the
// block's Archived section.
func (b Block) AssetFilenames() []string {
	matches := archiveLinkRe.FindAllStringSubmatch(b.Raw, -1)
	var out []string
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// Related returns the record identifiers listed in the block's Related
// section. Identifiers elsewhere in the block are ignored.
func (b Block) Related() []string {
	section := relatedSectionRe.FindStringSubmatch(b.Raw)
	if section == nil {
		return nil
	}
	return relatedIDRe.FindAllString(section[1], -1)
}

// Status returns the value of the block's Status section, or empty string.
func (b Block) Status() string {
	m := statusRe.FindStringSubmatch(b.Raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Partition is the parsed, in-memory form of one date-log file. Amend
// operations only ever touch the tail of Blocks.
type Partition struct {
	Date     string
	Preamble string // content before the first block
	Blocks   []Block
}

// ParsePartition splits raw partition content into its preamble and
// header-delimited blocks.
func ParsePartition(date, content string) *Partition {
	p := &Partition{Date: date}
	locs := headerRe.FindAllStringSubmatchIndex(content, -1)
	if len(locs) == 0 {
		p.Preamble = content
		return p
	}
	p.Preamble = content[:locs[0][0]]
	for i, m := range locs {
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		b := Block{
			Time:  content[m[2]:m[3]],
			Title: content[m[4]:m[5]],
			Raw:   content[m[0]:end],
		}
		if idm := idCommentRe.FindStringSubmatch(b.Raw); idm != nil {
			b.ID = idm[1]
		}
		p.Blocks = append(p.Blocks, b)
	}
	return p
}

// Render reassembles the partition file content.
func (p *Partition) Render() string {
	var sb strings.Builder
	sb.WriteString(p.Preamble)
	for _, b := range p.Blocks {
		sb.WriteString(b.Raw)
	}
	return sb.String()
}

// IDs returns the set of record identifiers declared in the partition.
func (p *Partition) IDs() map[string]struct{} {
	out := make(map[string]struct{}, len(p.Blocks))
	for _, b := range p.Blocks {
		if b.ID != "" {
			out[b.ID] = struct{}{}
		}
	}
	return out
}

// MatchPartition reports whether name is a partition filename and returns
// its embedded date.
func MatchPartition(name string) (string, bool) {
	m := partitionNameRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// PartitionFileName returns the corpus-relative filename for a date.
func PartitionFileName(date string) string {
	return date + ".md"
}
