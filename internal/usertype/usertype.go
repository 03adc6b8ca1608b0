// Package usertype defines the role bitmask shared with the JobVyne
// backend user model. Keep the values in sync with the backend.
package usertype

import "strconv"

// Bits is a role bitmask; each set bit is one role membership.
type Bits int

const (
	Admin      Bits = 0x1
	Candidate  Bits = 0x2
	Employee   Bits = 0x4
	Influencer Bits = 0x8
	Employer   Bits = 0x10
)

// None is the mask of a user that has not been onboarded yet.
const None Bits = 0

// DefaultExclude is removed from role lists shown to users.
const DefaultExclude = Admin | Candidate

// Namespaces used in route params.
const (
	NamespaceAdmin      = "admin"
	NamespaceCandidate  = "candidate"
	NamespaceEmployee   = "employee"
	NamespaceInfluencer = "influencer"
	NamespaceEmployer   = "employer"
	NamespaceUser       = "user"
)

// MainNamespaces are the role namespaces that require an onboarded user.
var MainNamespaces = []string{
	NamespaceCandidate,
	NamespaceEmployee,
	NamespaceInfluencer,
	NamespaceEmployer,
	NamespaceAdmin,
	NamespaceUser,
}

type roleInfo struct {
	bit       Bits
	name      string
	namespace string
}

// declaration order matters for List and Names
var roles = []roleInfo{
	{Admin, "Admin", NamespaceAdmin},
	{Candidate, "Candidate", NamespaceCandidate},
	{Employee, "Employee", NamespaceEmployee},
	{Influencer, "Influencer", NamespaceInfluencer},
	{Employer, "Employer", NamespaceEmployer},
}

// Has reports whether any bit of other is set in b.
func (b Bits) Has(other Bits) bool {
	return b&other != 0
}

func (b Bits) String() string {
	if name, ok := Name(b); ok {
		return name
	}
	return "0x" + strconv.FormatInt(int64(b), 16)
}

// All returns every known role bit in declaration order.
func All() []Bits {
	out := make([]Bits, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.bit)
	}
	return out
}

// Name returns the role name for a single bit.
func Name(bit Bits) (string, bool) {
	for _, r := range roles {
		if r.bit == bit {
			return r.name, true
		}
	}
	return "", false
}

// FromName returns the bit for a role name such as "Employer".
func FromName(name string) (Bits, bool) {
	for _, r := range roles {
		if r.name == name {
			return r.bit, true
		}
	}
	return None, false
}

// Namespace returns the route namespace of a single role bit.
func Namespace(bit Bits) (string, bool) {
	for _, r := range roles {
		if r.bit == bit {
			return r.namespace, true
		}
	}
	return "", false
}

// IsMainNamespace reports whether ns is one of MainNamespaces.
func IsMainNamespace(ns string) bool {
	for _, m := range MainNamespaces {
		if m == ns {
			return true
		}
	}
	return false
}

// List returns the role bits set in bits, minus exclude, in declaration order.
func List(bits, exclude Bits) []Bits {
	var out []Bits
	for _, r := range roles {
		if r.bit&exclude != 0 {
			continue
		}
		if bits&r.bit != 0 {
			out = append(out, r.bit)
		}
	}
	return out
}

// Names is List rendered as role names.
func Names(bits, exclude Bits) []string {
	var out []string
	for _, b := range List(bits, exclude) {
		name, _ := Name(b)
		out = append(out, name)
	}
	return out
}

// OrgType is the employer organization type bit.
type OrgType int

const (
	OrgEmployer OrgType = 0x1
	OrgGroup    OrgType = 0x2
	OrgAgency   OrgType = 0x4
)

func (o OrgType) IsEmployer() bool { return o == OrgEmployer }
func (o OrgType) IsGroup() bool    { return o == OrgGroup }
func (o OrgType) IsAgency() bool   { return o == OrgAgency }
