package guard

import (
	"fmt"

	"github.com/jobvyne/navguard/internal/route"
)

// Kind is the terminal state of one guard run.
type Kind int

const (
	Proceed Kind = iota
	RedirectAuth
	RedirectOnboard
	RedirectLanding
	RedirectPermissionDenied
	RedirectError
)

var kindNames = map[Kind]string{
	Proceed:                  "proceed",
	RedirectAuth:             "redirect_auth",
	RedirectOnboard:          "redirect_onboard",
	RedirectLanding:          "redirect_landing",
	RedirectPermissionDenied: "redirect_permission_denied",
	RedirectError:            "redirect_error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Outcome is where a navigation ends up. For Proceed, Location is the
// attempted target, possibly substituted (OAuth callback, donation
// confirmation). For redirects it is the replacement target.
type Outcome struct {
	Kind     Kind           `json:"outcome"`
	Location route.Location `json:"location"`
	Meta     route.Meta     `json:"meta"`
	// Reload is set when the API was redeployed since the client loaded.
	Reload   bool   `json:"reload"`
	DeployTS string `json:"deploy_ts,omitempty"`
	// Reason explains redirects in logs; it is never shown to visitors.
	Reason string `json:"-"`
}

// IsRedirect reports whether the attempted target was replaced by a
// redirect destination.
func (o Outcome) IsRedirect() bool {
	return o.Kind != Proceed
}
