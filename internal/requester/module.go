package requester

import (
	"go.uber.org/fx"
)

// Module provides the requester module dependencies
var Module = fx.Options(
	fx.Provide(
		NewHTTPRequester,
		NewAuthManager,
		fx.Annotate(
			func(r *HTTPRequester) *HTTPRequester { return r },
			fx.As(new(API)),
		),
	),
)
