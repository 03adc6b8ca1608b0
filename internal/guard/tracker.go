package guard

import (
	"context"
	"sync"
	"time"

	"github.com/jobvyne/navguard/internal/logger"
	"github.com/jobvyne/navguard/internal/requester"
	"github.com/jobvyne/navguard/internal/route"
	"go.uber.org/zap"
)

// PageViewPath records visits to tracked pages.
const PageViewPath = "page-view/"

const defaultPageViewTimeout = 10 * time.Second

// PageView is the body of POST page-view/.
type PageView struct {
	RelativeURL string            `json:"relative_url"`
	FilterID    string            `json:"filter_id,omitempty"`
	EmployerKey string            `json:"employer_key,omitempty"`
	Query       map[string]string `json:"query"`
}

// PageViewFor builds the page view of a navigation target.
func PageViewFor(loc route.Location) PageView {
	return PageView{
		RelativeURL: loc.Path,
		FilterID:    loc.Param(route.ParamFilterID),
		EmployerKey: loc.Param(route.ParamEmployerKey),
		Query:       loc.QueryMap(),
	}
}

// Tracker records page views without holding up navigation.
type Tracker interface {
	Track(ctx context.Context, api requester.API, pv PageView)
}

// PageViewTracker posts page views on background goroutines. The posts
// outlive the navigation that started them, bounded by timeout.
type PageViewTracker struct {
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewPageViewTracker creates a tracker. A non-positive timeout uses the
// default of 10s.
func NewPageViewTracker(timeout time.Duration) *PageViewTracker {
	if timeout <= 0 {
		timeout = defaultPageViewTimeout
	}
	return &PageViewTracker{timeout: timeout}
}

// Track implements Tracker.
func (t *PageViewTracker) Track(ctx context.Context, api requester.API, pv PageView) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		postCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
		defer cancel()

		if _, err := api.PostForm(postCtx, PageViewPath, pv); err != nil {
			logger.Warn("page view not recorded",
				zap.String("relative_url", pv.RelativeURL),
				zap.Error(err),
			)
			return
		}
		logger.Debug("page view recorded", zap.String("relative_url", pv.RelativeURL))
	}()
}

// Flush waits for pending page views or until ctx is done.
func (t *PageViewTracker) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
