package permission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jobvyne/navguard/internal/session"
	"github.com/jobvyne/navguard/internal/usertype"
)

// Facts is what predicates are evaluated against, derived once per decision
// from the user.
type Facts struct {
	UserTypeBits usertype.Bits
	// GroupBits is the union of role bits of the approved permission groups.
	GroupBits   usertype.Bits
	GroupNames  map[string]bool
	Permissions map[string]bool
	OrgType     usertype.OrgType
}

// FactsFor collects the facts about u. A nil user has no facts.
func FactsFor(u *session.User) Facts {
	f := Facts{
		GroupNames:  map[string]bool{},
		Permissions: map[string]bool{},
	}
	if u == nil {
		return f
	}
	f.UserTypeBits = u.UserTypeBits
	f.OrgType = u.EmployerOrgType
	for _, g := range u.ApprovedGroups() {
		f.GroupBits |= g.UserTypeBit
		f.GroupNames[g.Name] = true
	}
	for _, p := range u.AllPermissions() {
		f.Permissions[p] = true
	}
	return f
}

// Predicate is a declarative permission rule.
type Predicate interface {
	Evaluate(f Facts) bool
	Kind() string
}

// RoleInGroups holds when an approved permission group carries Bit.
// RoleInGroups{Bit: usertype.Employer} is the "user is an employer" rule.
type RoleInGroups struct {
	Bit usertype.Bits
}

func (p RoleInGroups) Evaluate(f Facts) bool { return f.GroupBits.Has(p.Bit) }
func (p RoleInGroups) Kind() string          { return "role_in_groups" }

// HasPermission holds when the user has all of Names, or any of them when
// Any is set.
type HasPermission struct {
	Names []string
	Any   bool
}

func (p HasPermission) Evaluate(f Facts) bool {
	if len(p.Names) == 0 {
		return false
	}
	for _, n := range p.Names {
		has := f.Permissions[n]
		if p.Any && has {
			return true
		}
		if !p.Any && !has {
			return false
		}
	}
	return !p.Any
}

func (p HasPermission) Kind() string { return "has_permission" }

// InGroup holds when the user belongs to an approved group with one of Names.
type InGroup struct {
	Names []string
}

func (p InGroup) Evaluate(f Facts) bool {
	for _, n := range p.Names {
		if f.GroupNames[n] {
			return true
		}
	}
	return false
}

func (p InGroup) Kind() string { return "in_group" }

// OrgType holds when the user's employer has the given organization type.
type OrgType struct {
	Type usertype.OrgType
}

func (p OrgType) Evaluate(f Facts) bool { return f.OrgType == p.Type }
func (p OrgType) Kind() string          { return "org_type" }

// All holds when every predicate holds.
type All []Predicate

func (p All) Evaluate(f Facts) bool {
	for _, q := range p {
		if !q.Evaluate(f) {
			return false
		}
	}
	return true
}

func (p All) Kind() string { return "all" }

// AnyOf holds when at least one predicate holds.
type AnyOf []Predicate

func (p AnyOf) Evaluate(f Facts) bool {
	for _, q := range p {
		if q.Evaluate(f) {
			return true
		}
	}
	return false
}

func (p AnyOf) Kind() string { return "any_of" }

// Describe renders a predicate for humans, e.g. in the CLI route listing.
func Describe(p Predicate) string {
	switch q := p.(type) {
	case nil:
		return "-"
	case RoleInGroups:
		return "group:" + q.Bit.String()
	case HasPermission:
		op := " & "
		if q.Any {
			op = " | "
		}
		return "perm(" + strings.Join(q.Names, op) + ")"
	case InGroup:
		return "in(" + strings.Join(q.Names, ", ") + ")"
	case OrgType:
		return fmt.Sprintf("org:%d", q.Type)
	case All:
		return joinDescribed(q, " AND ")
	case AnyOf:
		return joinDescribed(q, " OR ")
	default:
		return p.Kind()
	}
}

func joinDescribed(ps []Predicate, sep string) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		parts = append(parts, Describe(p))
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// predicateSpec is the YAML form of a predicate. Exactly one field is set.
type predicateSpec struct {
	RoleInGroups  string          `yaml:"role_in_groups"`
	HasPermission *permissionSpec `yaml:"has_permission"`
	InGroup       []string        `yaml:"in_group"`
	OrgType       string          `yaml:"org_type"`
	All           []predicateSpec `yaml:"all"`
	AnyOf         []predicateSpec `yaml:"any_of"`
}

type permissionSpec struct {
	Names []string `yaml:"names"`
	Any   bool     `yaml:"any"`
}

var orgTypes = map[string]usertype.OrgType{
	"employer": usertype.OrgEmployer,
	"group":    usertype.OrgGroup,
	"agency":   usertype.OrgAgency,
}

var errPredicateShape = errors.New("predicate must set exactly one rule")

func (s *predicateSpec) build() (Predicate, error) {
	var out []Predicate
	if s.RoleInGroups != "" {
		bit, ok := usertype.FromName(s.RoleInGroups)
		if !ok {
			return nil, fmt.Errorf("unknown role %q", s.RoleInGroups)
		}
		out = append(out, RoleInGroups{Bit: bit})
	}
	if s.HasPermission != nil {
		if len(s.HasPermission.Names) == 0 {
			return nil, errors.New("has_permission needs at least one name")
		}
		out = append(out, HasPermission{Names: s.HasPermission.Names, Any: s.HasPermission.Any})
	}
	if len(s.InGroup) > 0 {
		out = append(out, InGroup{Names: s.InGroup})
	}
	if s.OrgType != "" {
		t, ok := orgTypes[s.OrgType]
		if !ok {
			return nil, fmt.Errorf("unknown org type %q", s.OrgType)
		}
		out = append(out, OrgType{Type: t})
	}
	if len(s.All) > 0 {
		ps, err := buildAll(s.All)
		if err != nil {
			return nil, err
		}
		out = append(out, All(ps))
	}
	if len(s.AnyOf) > 0 {
		ps, err := buildAll(s.AnyOf)
		if err != nil {
			return nil, err
		}
		out = append(out, AnyOf(ps))
	}
	if len(out) != 1 {
		return nil, errPredicateShape
	}
	return out[0], nil
}

func buildAll(specs []predicateSpec) ([]Predicate, error) {
	out := make([]Predicate, 0, len(specs))
	for i := range specs {
		p, err := specs[i].build()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
