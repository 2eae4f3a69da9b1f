package authz

import "strings"

// Class is the protection level a route requires.
type Class int

const (
	// ClassPublic routes are reachable without a session.
	ClassPublic Class = iota
	// ClassAuthenticated routes require any resolved principal.
	ClassAuthenticated
	// ClassAdminOnly routes additionally require a capability.
	ClassAdminOnly
)

// String returns the class name for logging.
func (c Class) String() string {
	switch c {
	case ClassAuthenticated:
		return "authenticated"
	case ClassAdminOnly:
		return "admin_only"
	default:
		return "public"
	}
}

// Rule binds a path prefix to a protection class. Admin-only rules carry
// the capability the guard must find on the principal.
type Rule struct {
	Prefix     string
	Class      Class
	Capability Capability
}

// Classifier resolves request paths to protection classes. Matching is by
// longest configured prefix; an equal-length tie breaks toward the more
// restrictive class. Paths matching no rule are public.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a Classifier from the given rules.
func NewClassifier(rules []Rule) *Classifier {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Classifier{rules: copied}
}

// DefaultRules returns the application route table.
func DefaultRules() []Rule {
	return []Rule{
		{Prefix: "/", Class: ClassPublic},
		{Prefix: "/login", Class: ClassPublic},
		{Prefix: "/unauthorized", Class: ClassPublic},
		{Prefix: "/dashboard", Class: ClassAuthenticated},
		{Prefix: "/tasks", Class: ClassAuthenticated},
		{Prefix: "/profile", Class: ClassAuthenticated},
		{Prefix: "/uploads", Class: ClassAuthenticated},
		{Prefix: "/all-tasks", Class: ClassAdminOnly, Capability: CapViewAll},
		{Prefix: "/accounts", Class: ClassAdminOnly, Capability: CapViewAccounts},
		{Prefix: "/users", Class: ClassAdminOnly, Capability: CapManageUsers},
	}
}

// Classify returns the winning rule for path. It is pure and performs no
// I/O.
func (c *Classifier) Classify(path string) Rule {
	best := Rule{Class: ClassPublic}
	bestLen := -1
	for _, rule := range c.rules {
		if !matchPrefix(path, rule.Prefix) {
			continue
		}
		n := len(rule.Prefix)
		if n > bestLen || (n == bestLen && rule.Class > best.Class) {
			best = rule
			bestLen = n
		}
	}
	return best
}

// matchPrefix matches whole path segments, so "/tasks" covers "/tasks"
// and "/tasks/123" but not "/tasksomething". The root prefix covers
// everything.
func matchPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	if prefix == "/" {
		return true
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
