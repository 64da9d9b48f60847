package journal

import "time"

// Clock supplies wall-clock time for identifier allocation. It is injected
// so tests can pin allocation to a fixed minute instead of reading the
// global clock.
type Clock func() time.Time
