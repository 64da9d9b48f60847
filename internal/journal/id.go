package journal

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/scribe/internal/apperr"
)

const (
	// maxSuffix bounds same-minute collision resolution. Suffixes run
	// 02..99; a 100th record in one minute is unresolvable.
	maxSuffix = 99

	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)

	// validIDRe matches a declared record identifier: date, optional
	// time, optional two-digit collision suffix.
	validIDRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(-\d{2}-\d{2})?(-\d{2})?$`)
)

// ValidID reports whether id is a well-formed record identifier.
func ValidID(id string) bool {
	return validIDRe.MatchString(id)
}

// allocateID returns the first identifier for (date, hhmm) that is not in
// existing. The base form is YYYY-MM-DD-HH-MM; collisions are resolved by
// probing zero-padded suffixes starting at 02.
func allocateID(existing map[string]struct{}, date, hhmm string) (string, error) {
	base := date + "-" + strings.ReplaceAll(hhmm, ":", "-")
	if _, taken := existing[base]; !taken {
		return base, nil
	}
	for n := 2; n <= maxSuffix; n++ {
		id := fmt.Sprintf("%s-%02d", base, n)
		if _, taken := existing[id]; !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("journal: collision suffixes for %s: %w", base, apperr.ErrExhausted)
}
