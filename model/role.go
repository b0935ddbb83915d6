// Package model provides role-based endpoint selection for the debate
// engine. Instead of hardcoding a single model name, each debate role
// (debater A, debater B, judge) resolves to an endpoint with an optional
// fallback chain, filtered by endpoint health.
package model

// Role identifies one of the three generation roles in a debate.
type Role string

const (
	// RoleDebaterA generates the left-stance debater's arguments.
	RoleDebaterA Role = "ai_a"

	// RoleDebaterB generates the right-stance debater's arguments.
	RoleDebaterB Role = "ai_b"

	// RoleJudge selects the axis and delivers the judgment.
	RoleJudge Role = "judge"
)

// Roles lists all debate roles in a stable order.
var Roles = []Role{RoleDebaterA, RoleDebaterB, RoleJudge}

// IsValid checks if a role string is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleDebaterA, RoleDebaterB, RoleJudge:
		return true
	}
	return false
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a string to a Role, returning empty for invalid values.
func ParseRole(s string) Role {
	role := Role(s)
	if role.IsValid() {
		return role
	}
	return ""
}
