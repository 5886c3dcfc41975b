package rangecache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Key derives a cache key from the stage, the source id and every
// parameter that affects the stage's output. Parameter order does not
// matter.
func Key(stage, sourceID string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		fmt.Fprintf(h, "%s=%s\n", name, params[name])
	}
	return fmt.Sprintf("%s/%s-%s", stage, sanitize(sourceID), hex.EncodeToString(h.Sum(nil))[:16])
}

// Float formats a parameter value so equal floats always produce equal keys.
func Float(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func sanitize(id string) string {
	if id == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}
