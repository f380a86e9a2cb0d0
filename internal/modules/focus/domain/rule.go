package domain

import (
	"net/url"
	"strings"
)

type ResourceScope string

const (
	ScopeMainFrame ResourceScope = "main_frame"
	ScopeSubFrame  ResourceScope = "sub_frame"
	ScopeOther     ResourceScope = "other"
)

// Rule redirects top-level navigation to Domain towards Destination.
type Rule struct {
	ID          int
	Domain      string
	Destination string
	Scope       ResourceScope
}

func (r Rule) URLFilter() string {
	return "*://" + r.Domain + "/*"
}

// BuildRules numbers rules 1..N in site order.
func BuildRules(sites []string, destination string) []Rule {
	rules := make([]Rule, 0, len(sites))
	for i, site := range sites {
		rules = append(rules, Rule{
			ID:          i + 1,
			Domain:      site,
			Destination: destination,
			Scope:       ScopeMainFrame,
		})
	}
	return rules
}

// RuleIDs returns 1..n.
func RuleIDs(n int) []int {
	ids := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, i)
	}
	return ids
}

// Matches applies the *://domain/* filter: any scheme and path, exact host.
func (r Rule) Matches(rawURL string, scope ResourceScope) bool {
	if scope != r.Scope {
		return false
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return false
	}
	host := u.Hostname()
	if strings.Contains(r.Domain, ":") {
		host = u.Host
	}
	return strings.EqualFold(host, r.Domain)
}
