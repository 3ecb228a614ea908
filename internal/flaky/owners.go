package flaky

import (
	"strings"

	"github.com/drew/flakewatch/internal/config"
)

// ResolveOwner returns the team of the first rule whose match is a substring of
// file, or config.DefaultOwner.
func ResolveOwner(file string, rules []config.OwnerRule) string {
	for _, r := range rules {
		if r.Match != "" && strings.Contains(file, r.Match) {
			return r.Team
		}
	}
	return config.DefaultOwner
}
