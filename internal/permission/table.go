// Package permission decides whether a user may view or edit a page, and
// picks the page a user lands on after signing in.
package permission

import (
	"errors"
	"fmt"
	"os"

	"github.com/jobvyne/navguard/internal/usertype"
	"gopkg.in/yaml.v3"
)

// ErrUnknownPage is returned when a page key is not in the table.
var ErrUnknownPage = errors.New("unknown page")

// EmailCheck names the verification flag a page requires.
type EmailCheck int

const (
	EmailNone EmailCheck = iota
	// EmailPersonal requires is_email_verified.
	EmailPersonal
	// EmailEmployer requires is_employer_verified.
	EmailEmployer
)

func (e EmailCheck) String() string {
	switch e {
	case EmailPersonal:
		return "personal"
	case EmailEmployer:
		return "employer"
	default:
		return "none"
	}
}

// Page is one permission-checked page. Edit and View are optional.
type Page struct {
	Key        string
	Label      string
	Namespace  string
	Role       usertype.Bits
	EmailCheck EmailCheck
	Edit       Predicate
	View       Predicate
}

// Table holds pages in declaration order.
type Table struct {
	pages []Page
	byKey map[string]int
}

// NewTable builds a table. Page keys must be unique and every page needs a
// single role bit.
func NewTable(pages []Page) (*Table, error) {
	t := &Table{
		pages: make([]Page, 0, len(pages)),
		byKey: make(map[string]int, len(pages)),
	}
	for _, p := range pages {
		if p.Key == "" {
			return nil, errors.New("page key is required")
		}
		if _, dup := t.byKey[p.Key]; dup {
			return nil, fmt.Errorf("page %s: declared twice", p.Key)
		}
		if _, ok := usertype.Name(p.Role); !ok {
			return nil, fmt.Errorf("page %s: role %s is not a single role bit", p.Key, p.Role)
		}
		if p.Namespace == "" {
			p.Namespace, _ = usertype.Namespace(p.Role)
		}
		t.byKey[p.Key] = len(t.pages)
		t.pages = append(t.pages, p)
	}
	return t, nil
}

// Pages returns all pages in declaration order.
func (t *Table) Pages() []Page {
	return append([]Page(nil), t.pages...)
}

// Page looks a page up by key.
func (t *Table) Page(key string) (Page, error) {
	i, ok := t.byKey[key]
	if !ok {
		return Page{}, fmt.Errorf("%w: %s", ErrUnknownPage, key)
	}
	return t.pages[i], nil
}

// PagesForRole returns the pages of one role in declaration order.
func (t *Table) PagesForRole(role usertype.Bits) []Page {
	var out []Page
	for _, p := range t.pages {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

type pageSpec struct {
	Key        string         `yaml:"key"`
	Label      string         `yaml:"label"`
	Namespace  string         `yaml:"namespace"`
	Role       string         `yaml:"role"`
	EmailCheck string         `yaml:"email_check"`
	Edit       *predicateSpec `yaml:"edit"`
	View       *predicateSpec `yaml:"view"`
}

type tableFile struct {
	Pages []pageSpec `yaml:"pages"`
}

// ParseTable decodes a YAML page table, for example:
//
//	pages:
//	  - key: employer-settings
//	    role: Employer
//	    email_check: employer
//	    edit:
//	      all:
//	        - role_in_groups: Employer
//	        - has_permission: {any: true, names: [Manage employer settings]}
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse pages: %w", err)
	}
	pages := make([]Page, 0, len(f.Pages))
	for _, s := range f.Pages {
		p, err := s.build()
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", s.Key, err)
		}
		pages = append(pages, p)
	}
	return NewTable(pages)
}

// LoadTable reads a YAML page table from disk.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pages: %w", err)
	}
	return ParseTable(data)
}

func (s pageSpec) build() (Page, error) {
	role, ok := usertype.FromName(s.Role)
	if !ok {
		return Page{}, fmt.Errorf("unknown role %q", s.Role)
	}
	p := Page{Key: s.Key, Label: s.Label, Namespace: s.Namespace, Role: role}

	switch s.EmailCheck {
	case "", "none":
	case "personal":
		p.EmailCheck = EmailPersonal
	case "employer":
		p.EmailCheck = EmailEmployer
	default:
		return Page{}, fmt.Errorf("unknown email check %q", s.EmailCheck)
	}

	var err error
	if s.Edit != nil {
		if p.Edit, err = s.Edit.build(); err != nil {
			return Page{}, fmt.Errorf("edit: %w", err)
		}
	}
	if s.View != nil {
		if p.View, err = s.View.build(); err != nil {
			return Page{}, fmt.Errorf("view: %w", err)
		}
	}
	return p, nil
}
