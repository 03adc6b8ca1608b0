package route

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var defaultRoutes []byte

// ErrUnknownRoute is returned when a named location references no route.
var ErrUnknownRoute = errors.New("unknown route")

var notFound = Route{Name: NameNotFound, Path: "/*", Meta: Meta{IsNoAuth: true}}

// Table is an ordered set of routes. The first declared route that matches
// a path wins.
type Table struct {
	routes []Route
	byName map[string]int
}

type tableFile struct {
	Routes []Route `yaml:"routes"`
}

// NewTable validates routes and builds a table from them.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{
		routes: make([]Route, 0, len(routes)),
		byName: make(map[string]int, len(routes)),
	}
	for i, r := range routes {
		if r.Name == "" {
			return nil, fmt.Errorf("route %d: name is required", i)
		}
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("route %s: path %q must start with /", r.Name, r.Path)
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, fmt.Errorf("route %s: declared twice", r.Name)
		}
		t.byName[r.Name] = len(t.routes)
		t.routes = append(t.routes, r)
	}
	return t, nil
}

// ParseTable decodes a YAML route file.
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse routes: %w", err)
	}
	return NewTable(f.Routes)
}

// LoadTable reads a YAML route file from disk.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes: %w", err)
	}
	return ParseTable(data)
}

// DefaultTable returns the client's built-in routes.
func DefaultTable() *Table {
	t, err := ParseTable(defaultRoutes)
	if err != nil {
		panic(fmt.Sprintf("built-in routes: %v", err))
	}
	return t
}

// Routes returns the declared routes in order.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Route looks a route up by name.
func (t *Table) Route(name string) (*Route, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	r := t.routes[i]
	return &r, true
}

// Match resolves a relative URL ("/employer/jobs?tab=open") to a target.
// Paths that match no route resolve to the not-found route.
func (t *Table) Match(rawURL string) (Target, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Target{}, fmt.Errorf("parse %q: %w", rawURL, err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return t.MatchPath(path, u.Query()), nil
}

// MatchPath resolves a path and query to a target.
func (t *Table) MatchPath(path string, query url.Values) Target {
	segs := splitPath(path)
	for i := range t.routes {
		r := t.routes[i]
		params, ok := matchSegments(splitPath(r.Path), segs)
		if !ok {
			continue
		}
		if r.Namespace != "" {
			if _, set := params[ParamNamespace]; !set {
				params[ParamNamespace] = r.Namespace
			}
		}
		return Target{
			Route: &r,
			Location: Location{
				Name:   r.Name,
				Path:   path,
				Params: params,
				Query:  cloneQuery(query),
			},
		}
	}
	nf := notFound
	return Target{
		Route:    &nf,
		Location: Location{Name: nf.Name, Path: path, Params: map[string]string{}, Query: cloneQuery(query)},
	}
}

// Resolve fills in the path of a named location from its params. A location
// without a name is returned as is.
func (t *Table) Resolve(loc Location) (Location, error) {
	out := loc.Clone()
	if out.Name == "" {
		return out, nil
	}
	r, ok := t.Route(out.Name)
	if !ok {
		return Location{}, fmt.Errorf("%w: %s", ErrUnknownRoute, out.Name)
	}
	segs := splitPath(r.Path)
	built := make([]string, 0, len(segs))
	for _, s := range segs {
		if strings.HasPrefix(s, ":") {
			v := out.Params[s[1:]]
			if v == "" {
				return Location{}, fmt.Errorf("route %s: missing param %s", r.Name, s[1:])
			}
			built = append(built, url.PathEscape(v))
			continue
		}
		built = append(built, s)
	}
	out.Path = "/" + strings.Join(built, "/")
	return out, nil
}

func matchSegments(pattern, segs []string) (map[string]string, bool) {
	if len(pattern) != len(segs) {
		return nil, false
	}
	params := make(map[string]string)
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			v, err := url.PathUnescape(segs[i])
			if err != nil || v == "" {
				return nil, false
			}
			params[p[1:]] = v
			continue
		}
		if p != segs[i] {
			return nil, false
		}
	}
	return params, true
}

func cloneQuery(q url.Values) url.Values {
	if len(q) == 0 {
		return nil
	}
	return Location{Query: q}.Clone().Query
}
