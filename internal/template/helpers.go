package template

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// isoWithOffset is the default `now` layout: ISO-8601 with milliseconds
// and a UTC offset, per §4.F.
const isoWithOffset = "2006-01-02T15:04:05.000Z07:00"

// builtins are the required helpers of §4.F. Each is looked up by name
// when a compiled template token matches a registered helper; otherwise
// the token is treated as a context-path lookup.
var builtins = map[string]HelperFunc{
	"uuid": func(Context, []string) (string, error) {
		return uuid.NewString(), nil
	},
	"now": func(_ Context, args []string) (string, error) {
		layout := isoWithOffset
		if len(args) > 0 && args[0] != "" {
			layout = args[0]
		}
		return time.Now().UTC().Format(layout), nil
	},
	"timestamp": func(Context, []string) (string, error) {
		return strconv.FormatInt(time.Now().UnixMilli(), 10), nil
	},
	"random": func(_ Context, args []string) (string, error) {
		lo, hi := 0, 100
		if len(args) > 0 {
			if v, err := strconv.Atoi(args[0]); err == nil {
				lo = v
			}
		}
		if len(args) > 1 {
			if v, err := strconv.Atoi(args[1]); err == nil {
				hi = v
			}
		}
		if hi < lo {
			lo, hi = hi, lo
		}
		n := lo + rand.Intn(hi-lo+1)
		return strconv.Itoa(n), nil
	},
	"concat": func(_ Context, args []string) (string, error) {
		return strings.Join(args, ""), nil
	},
}
