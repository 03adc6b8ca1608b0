package permission

import (
	"strings"

	"github.com/jobvyne/navguard/internal/route"
	"github.com/jobvyne/navguard/internal/session"
	"github.com/jobvyne/navguard/internal/usertype"
)

// Decision is the outcome of a page permission check. CanEdit implies CanView.
type Decision struct {
	CanView bool `json:"can_view"`
	CanEdit bool `json:"can_edit"`
}

var (
	allowAll = Decision{CanView: true, CanEdit: true}
	denyAll  = Decision{}
)

// UserPagePermissions decides what u may do on pageKey. Pages that are not
// in the table are unrestricted.
func (t *Table) UserPagePermissions(u *session.User, pageKey string) Decision {
	i, ok := t.byKey[pageKey]
	if !ok {
		return allowAll
	}
	page := t.pages[i]
	if u == nil {
		return denyAll
	}
	if !page.Role.Has(u.UserTypeBits) {
		return denyAll
	}
	if !emailVerified(u, page.EmailCheck) {
		return denyAll
	}

	facts := FactsFor(u)
	canEdit := page.Edit == nil || page.Edit.Evaluate(facts)
	canView := canEdit ||
		(page.Edit == nil && page.View == nil) ||
		(page.View != nil && page.View.Evaluate(facts))
	return Decision{CanView: canView, CanEdit: canEdit}
}

func emailVerified(u *session.User, check EmailCheck) bool {
	switch check {
	case EmailPersonal:
		return u.IsEmailVerified
	case EmailEmployer:
		return u.IsEmployerVerified
	default:
		return true
	}
}

// ViewablePages returns the pages of role that u may view, in declaration
// order. This is the menu shown for that role.
func (t *Table) ViewablePages(u *session.User, role usertype.Bits) []Page {
	var out []Page
	for _, p := range t.PagesForRole(role) {
		if t.UserPagePermissions(u, p.Key).CanView {
			out = append(out, p)
		}
	}
	return out
}

// DefaultLandingPage returns the first dashboard u can view, restricted to
// role when role is not None. Users without a viewable dashboard land on
// their profile.
func (t *Table) DefaultLandingPage(u *session.User, role usertype.Bits) route.Location {
	for _, p := range t.pages {
		if !strings.Contains(p.Key, "dashboard") {
			continue
		}
		if role != usertype.None && !role.Has(p.Role) {
			continue
		}
		if t.UserPagePermissions(u, p.Key).CanView {
			return t.PageLocation(p.Key)
		}
	}
	return t.PageLocation(route.NameProfile)
}

// PageLocation returns the named location of a page. Keys outside the table
// are generic user pages.
func (t *Table) PageLocation(key string) route.Location {
	ns := usertype.NamespaceUser
	if i, ok := t.byKey[key]; ok {
		ns = t.pages[i].Namespace
	}
	return route.Location{
		Name: key,
		Params: map[string]string{
			route.ParamKey:       key,
			route.ParamNamespace: ns,
		},
	}
}

// UserHasPermission reports whether any of u's employers grants name.
func UserHasPermission(u *session.User, name string) bool {
	return u.HasPermission(name)
}
