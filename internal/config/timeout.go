package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// TimeoutKey is the configuration key propagated to process factories.
const TimeoutKey = "timeout"

// Timeout reads the timeout entry of s. The boolean is false when s has no
// timeout entry at all.
func Timeout(s Store) (time.Duration, bool, error) {
	if s == nil || !s.Has(TimeoutKey) {
		return 0, false, nil
	}
	d, err := ParseTimeout(s.Get(TimeoutKey, nil))
	if err != nil {
		return 0, true, err
	}
	return d, true, nil
}

// ParseTimeout converts a configuration value to a duration. Durations are
// used as is, numbers are seconds and strings are either Go durations ("90s")
// or seconds ("90"). nil and non-positive values mean no timeout.
func ParseTimeout(value any) (time.Duration, error) {
	var d time.Duration

	switch v := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		d = v
	case bool:
		return 0, fmt.Errorf("invalid timeout %v", v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			secs, ferr := cast.ToFloat64E(s)
			if ferr != nil {
				return 0, fmt.Errorf("invalid timeout %q: %w", v, err)
			}
			parsed = seconds(secs)
		}
		d = parsed
	default:
		secs, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout %v: %w", v, err)
		}
		d = seconds(secs)
	}

	if d < 0 {
		return 0, nil
	}
	return d, nil
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
