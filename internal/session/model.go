// Package session holds the signed-in user as reported by the JobVyne API
// and the store that keeps it for the lifetime of a visitor session.
package session

import (
	"sort"

	"github.com/jobvyne/navguard/internal/usertype"
)

// PermissionGroup is an employer permission group the user belongs to.
type PermissionGroup struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	UserTypeBit usertype.Bits `json:"user_type_bit"`
	IsApproved  bool          `json:"is_approved"`
}

// User mirrors the user object of auth/check-auth/.
// Employer-keyed maps use the employer id as a string, as in the JSON payload.
type User struct {
	ID                         int64                        `json:"id"`
	Email                      string                       `json:"email"`
	UserTypeBits               usertype.Bits                `json:"user_type_bits"`
	IsEmailVerified            bool                         `json:"is_email_verified"`
	IsEmployerVerified         bool                         `json:"is_employer_verified"`
	PermissionsByEmployer      map[string][]string          `json:"permissions_by_employer"`
	PermissionGroupsByEmployer map[string][]PermissionGroup `json:"permission_groups_by_employer"`
	EmployerID                 *int64                       `json:"employer_id"`
	EmployerOrgType            usertype.OrgType             `json:"employer_org_type"`
}

// IsEmpty reports whether u carries no identity. The API returns {} for
// anonymous visitors.
func (u *User) IsEmpty() bool {
	return u == nil || (u.ID == 0 && u.Email == "")
}

// IsAuthenticated reports whether u is present and non-empty.
func IsAuthenticated(u *User) bool {
	return !u.IsEmpty()
}

// AllPermissions returns the union of permission names across employers.
func (u *User) AllPermissions() []string {
	if u == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, perms := range u.PermissionsByEmployer {
		for _, p := range perms {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// ApprovedGroups returns the approved permission groups across employers,
// ordered by employer id then group id.
func (u *User) ApprovedGroups() []PermissionGroup {
	if u == nil {
		return nil
	}
	employers := make([]string, 0, len(u.PermissionGroupsByEmployer))
	for id := range u.PermissionGroupsByEmployer {
		employers = append(employers, id)
	}
	sort.Strings(employers)

	var out []PermissionGroup
	for _, id := range employers {
		for _, g := range u.PermissionGroupsByEmployer[id] {
			if g.IsApproved {
				out = append(out, g)
			}
		}
	}
	return out
}

// HasPermission reports whether any employer grants the user name.
func (u *User) HasPermission(name string) bool {
	if u == nil {
		return false
	}
	for _, perms := range u.PermissionsByEmployer {
		for _, p := range perms {
			if p == name {
				return true
			}
		}
	}
	return false
}

// CheckAuthResponse is the body of GET auth/check-auth/.
type CheckAuthResponse struct {
	User     *User  `json:"user"`
	DeployTS string `json:"deploy_ts"`
}
