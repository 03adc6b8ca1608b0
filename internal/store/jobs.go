package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jobvyne/navguard/internal/memo"
)

// Pagination is the paging state of a job listing.
type Pagination struct {
	Page        int    `json:"page"`
	RowsPerPage int    `json:"rowsPerPage"`
	SortBy      string `json:"sortBy,omitempty"`
	Descending  bool   `json:"descending,omitempty"`
}

// JobsStore caches paginated job searches.
type JobsStore struct {
	api  Getter
	jobs *memo.Memo[Record]
}

func NewJobsStore(api Getter, cache *Cache) *JobsStore {
	return &JobsStore{api: api, jobs: newMemo[Record](cache, "jobs")}
}

func jobsKey(p Pagination, filter map[string]any) memo.Key {
	if filter == nil {
		filter = map[string]any{}
	}
	return memo.NewKey(p, filter)
}

// SetJobs loads one page of jobs/ for filter.
func (s *JobsStore) SetJobs(ctx context.Context, p Pagination, filter map[string]any, force bool) error {
	if filter == nil {
		filter = map[string]any{}
	}
	rawPage, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pagination: %w", err)
	}
	rawFilter, err := json.Marshal(filter)
	if err != nil {
		return fmt.Errorf("encode filter: %w", err)
	}
	q := url.Values{
		"pagination":   {string(rawPage)},
		"filterParams": {string(rawFilter)},
	}
	return s.jobs.Set(ctx, jobsKey(p, filter), force, fetchJSON[Record](s.api, "jobs/", q))
}

func (s *JobsStore) GetJobs(ctx context.Context, p Pagination, filter map[string]any) (Record, bool) {
	return s.jobs.Get(ctx, jobsKey(p, filter))
}

// MemberQuery narrows a community member listing. Zero fields are unset.
type MemberQuery struct {
	EmployerID    *int64
	ProfessionKey string
}

func (q MemberQuery) key(memberType int) memo.Key {
	var profession any
	if q.ProfessionKey != "" {
		profession = q.ProfessionKey
	}
	return memo.NewKey(memberType, q.EmployerID, profession)
}

// CommunityStore caches community member listings.
type CommunityStore struct {
	api     Getter
	members *memo.Memo[[]Record]
}

func NewCommunityStore(api Getter, cache *Cache) *CommunityStore {
	return &CommunityStore{api: api, members: newMemo[[]Record](cache, "community-members")}
}

func (s *CommunityStore) SetMembers(ctx context.Context, memberType int, mq MemberQuery, force bool) error {
	q := url.Values{"member_type": {strconv.Itoa(memberType)}}
	optionalID(q, "employer_id", mq.EmployerID)
	if mq.ProfessionKey != "" {
		q.Set("profession_key", mq.ProfessionKey)
	}
	return s.members.Set(ctx, mq.key(memberType), force, fetchJSON[[]Record](s.api, "community/members/", q))
}

// GetMembers returns an empty list until the members are loaded.
func (s *CommunityStore) GetMembers(ctx context.Context, memberType int, mq MemberQuery) []Record {
	return s.members.GetOr(ctx, mq.key(memberType), []Record{})
}

// JobSubscriptionStore caches job subscriptions per employer and user.
type JobSubscriptionStore struct {
	api           Getter
	subscriptions *memo.Memo[[]Record]
}

func NewJobSubscriptionStore(api Getter, cache *Cache) *JobSubscriptionStore {
	return &JobSubscriptionStore{api: api, subscriptions: newMemo[[]Record](cache, "job-subscription")}
}

func (s *JobSubscriptionStore) SetJobSubscription(ctx context.Context, employerID, userID *int64, force bool) error {
	q := url.Values{}
	optionalID(q, "employer_id", employerID)
	optionalID(q, "user_id", userID)
	return s.subscriptions.Set(ctx, memo.NewKey(employerID, userID), force,
		fetchJSON[[]Record](s.api, "job-subscription/", q))
}

func (s *JobSubscriptionStore) GetJobSubscription(ctx context.Context, employerID, userID *int64) ([]Record, bool) {
	return s.subscriptions.Get(ctx, memo.NewKey(employerID, userID))
}
