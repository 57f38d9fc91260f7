package datasource

import (
	"fmt"
	"time"
)

// Stringify renders a scanned database value the way profiles store sampled
// values. Byte slices fold to text and timestamps use a stable layout so the
// same data renders identically across adapters.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(t)
	}
}
