package auth

import (
	"net/http"
	"strings"
)

// Role labels carried in session tokens.
const (
	RoleOwner      = "Owner"
	RoleAdmin      = "Admin"
	RoleAccountant = "Accountant"
	RoleSalesman   = "Salesman"
)

// Rule lists the roles allowed per HTTP method under a route prefix.
type Rule struct {
	Prefix  string
	Methods map[string][]string
}

// Gate decides whether a role may call a method on a path. The owner always
// passes. A path no rule covers, or a method its rule does not list, is
// allowed: the table names what is restricted, not what is permitted.
type Gate struct {
	rules []Rule
}

func NewGate(rules []Rule) *Gate {
	return &Gate{rules: rules}
}

// Allow reports whether role may perform method on path.
func (g *Gate) Allow(method, path, role string) bool {
	if role == RoleOwner {
		return true
	}
	rule, ok := g.match(path)
	if !ok {
		return true
	}
	roles, ok := rule.Methods[strings.ToUpper(method)]
	if !ok {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// match returns the rule with the longest prefix covering path. A prefix
// only matches on a segment boundary, so /api/party does not cover
// /api/party-report.
func (g *Gate) match(path string) (Rule, bool) {
	var best Rule
	found := false
	for _, rule := range g.rules {
		if !covers(rule.Prefix, path) {
			continue
		}
		if !found || len(rule.Prefix) > len(best.Prefix) {
			best = rule
			found = true
		}
	}
	return best, found
}

func covers(prefix, path string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == '/' || rest[0] == '?'
}

var (
	allStaff   = []string{RoleAdmin, RoleAccountant, RoleSalesman}
	backOffice = []string{RoleAdmin, RoleAccountant}
	adminOnly  = []string{RoleAdmin}
)

// DefaultRules is the permission table of the API.
func DefaultRules() []Rule {
	return []Rule{
		{Prefix: "/api/sale-purchase", Methods: map[string][]string{
			http.MethodGet:    allStaff,
			http.MethodPost:   allStaff,
			http.MethodPut:    backOffice,
			http.MethodDelete: adminOnly,
		}},
		{Prefix: "/api/expense", Methods: map[string][]string{
			http.MethodGet:    backOffice,
			http.MethodPost:   backOffice,
			http.MethodPut:    backOffice,
			http.MethodDelete: adminOnly,
		}},
		{Prefix: "/api/loan-accounts", Methods: map[string][]string{
			http.MethodGet:    backOffice,
			http.MethodPost:   adminOnly,
			http.MethodDelete: adminOnly,
		}},
		{Prefix: "/api/loan-payment", Methods: map[string][]string{
			http.MethodGet:    backOffice,
			http.MethodPost:   backOffice,
			http.MethodPut:    backOffice,
			http.MethodDelete: adminOnly,
		}},
		{Prefix: "/api/loan-charge", Methods: map[string][]string{
			http.MethodGet:    backOffice,
			http.MethodPost:   backOffice,
			http.MethodPut:    backOffice,
			http.MethodDelete: adminOnly,
		}},
		{Prefix: "/api/loan-increase", Methods: map[string][]string{
			http.MethodGet:    backOffice,
			http.MethodPost:   adminOnly,
			http.MethodPut:    adminOnly,
			http.MethodDelete: adminOnly,
		}},
		{Prefix: "/api/party", Methods: map[string][]string{
			http.MethodGet:    allStaff,
			http.MethodPost:   allStaff,
			http.MethodPut:    backOffice,
			http.MethodDelete: adminOnly,
		}},
		{Prefix: "/api/cash-bank", Methods: map[string][]string{
			http.MethodGet:  backOffice,
			http.MethodPost: adminOnly,
		}},
		{Prefix: "/api/transactions", Methods: map[string][]string{
			http.MethodGet: backOffice,
		}},
		{Prefix: "/api/transactions/export", Methods: map[string][]string{
			http.MethodGet: adminOnly,
		}},
	}
}
