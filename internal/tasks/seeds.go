package tasks

import (
	"net/http"

	"github.com/desertthunder/moodlist/internal/services"
)

// SeedAttempts lists the seed sets tried in order when the provider rejects a set: the full set,
// then the first two seeds, then the first one. Sizes strictly decrease, so at most two extra
// attempts follow the first.
func SeedAttempts(seeds []string) [][]string {
	if len(seeds) == 0 {
		return nil
	}

	attempts := [][]string{append([]string(nil), seeds...)}
	for _, n := range []int{2, 1} {
		if n < len(attempts[len(attempts)-1]) {
			attempts = append(attempts, append([]string(nil), seeds[:n]...))
		}
	}
	return attempts
}

// seedRejected reports whether err is the provider refusing the seed set itself,
// which is the only failure worth retrying with fewer seeds.
func seedRejected(err error) bool {
	switch services.StatusCode(err) {
	case http.StatusBadRequest, http.StatusNotFound:
		return true
	}
	return false
}
