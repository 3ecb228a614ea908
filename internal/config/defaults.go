package config

// DefaultOwner is assigned when no owner rule matches
const DefaultOwner = "platform-team"

// DefaultOwnerRules returns the built-in ownership rules.
// Order matters: the first matching rule wins.
func DefaultOwnerRules() []OwnerRule {
	return []OwnerRule{
		{Match: "api/", Team: "backend-team"},
		{Match: "ui/", Team: "frontend-team"},
		{Match: "campaign", Team: "campaigns-team"},
		{Match: "user", Team: "users-team"},
		{Match: "admin", Team: "admin-team"},
	}
}
