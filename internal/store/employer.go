package store

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jobvyne/navguard/internal/memo"
)

// JobLocations are the filter facets of an employer's open jobs.
type JobLocations struct {
	Locations []Record `json:"locations"`
	Cities    []Record `json:"cities"`
	States    []Record `json:"states"`
	Countries []Record `json:"countries"`
}

// EmployerStore caches employer-scoped entities, keyed by employer id.
type EmployerStore struct {
	api Getter

	employers        *memo.Memo[Record]
	allEmployers     *memo.Memo[[]Record]
	employees        *memo.Memo[[]Record]
	billing          *memo.Memo[Record]
	jobs             *memo.Memo[[]Record]
	jobLocations     *memo.Memo[JobLocations]
	jobDepartments   *memo.Memo[[]Record]
	referralRequests *memo.Memo[[]Record]
	bonusRules       *memo.Memo[[]Record]
	socialLinks      *memo.Memo[[]Record]
	subscription     *memo.Memo[Record]
	jobSubscription  *memo.Memo[[]Record]
	permissionGroups *memo.Memo[[]Record]
	files            *memo.Memo[[]Record]
	fileTags         *memo.Memo[[]Record]
	page             *memo.Memo[Record]
	fromDomain       *memo.Memo[[]Record]
}

// NewEmployerStore creates an employer store on cache.
func NewEmployerStore(api Getter, cache *Cache) *EmployerStore {
	return &EmployerStore{
		api:              api,
		employers:        newMemo[Record](cache, "employer"),
		allEmployers:     newMemo[[]Record](cache, "employer-all"),
		employees:        newMemo[[]Record](cache, "employer-employees"),
		billing:          newMemo[Record](cache, "employer-billing"),
		jobs:             newMemo[[]Record](cache, "employer-jobs"),
		jobLocations:     newMemo[JobLocations](cache, "employer-job-locations"),
		jobDepartments:   newMemo[[]Record](cache, "employer-job-departments"),
		referralRequests: newMemo[[]Record](cache, "employer-referral-requests"),
		bonusRules:       newMemo[[]Record](cache, "employer-bonus-rules"),
		socialLinks:      newMemo[[]Record](cache, "employer-social-links"),
		subscription:     newMemo[Record](cache, "employer-subscription"),
		jobSubscription:  newMemo[[]Record](cache, "employer-job-subscription"),
		permissionGroups: newMemo[[]Record](cache, "employer-permission-groups"),
		files:            newMemo[[]Record](cache, "employer-files"),
		fileTags:         newMemo[[]Record](cache, "employer-file-tags"),
		page:             newMemo[Record](cache, "employer-page"),
		fromDomain:       newMemo[[]Record](cache, "employer-from-domain"),
	}
}

func employerQuery(employerID int64) url.Values {
	return url.Values{"employer_id": {idString(employerID)}}
}

// SetEmployer loads employer/{id}/. A zero id is ignored.
func (s *EmployerStore) SetEmployer(ctx context.Context, employerID int64, force bool) error {
	if employerID == 0 {
		return nil
	}
	path := fmt.Sprintf("employer/%d/", employerID)
	return s.employers.Set(ctx, memo.NewKey(employerID), force, fetchJSON[Record](s.api, path, nil))
}

func (s *EmployerStore) GetEmployer(ctx context.Context, employerID int64) (Record, bool) {
	return s.employers.Get(ctx, memo.NewKey(employerID))
}

// SetAllEmployers loads the employer directory.
func (s *EmployerStore) SetAllEmployers(ctx context.Context, force bool) error {
	return s.allEmployers.Set(ctx, memo.NewKey(), force, fetchJSON[[]Record](s.api, "employer/", nil))
}

func (s *EmployerStore) GetAllEmployers(ctx context.Context) []Record {
	return s.allEmployers.GetOr(ctx, memo.NewKey(), []Record{})
}

func (s *EmployerStore) SetEmployees(ctx context.Context, employerID int64, force bool) error {
	return s.employees.Set(ctx, memo.NewKey(employerID), force, fetchJSON[[]Record](s.api, "user/", employerQuery(employerID)))
}

func (s *EmployerStore) GetEmployees(ctx context.Context, employerID int64) ([]Record, bool) {
	return s.employees.Get(ctx, memo.NewKey(employerID))
}

func (s *EmployerStore) SetEmployerBilling(ctx context.Context, employerID int64, force bool) error {
	path := fmt.Sprintf("employer/billing/%d/", employerID)
	return s.billing.Set(ctx, memo.NewKey(employerID), force, fetchJSON[Record](s.api, path, nil))
}

func (s *EmployerStore) GetEmployerBilling(ctx context.Context, employerID int64) (Record, bool) {
	return s.billing.Get(ctx, memo.NewKey(employerID))
}

// SetEmployerJobs loads the employer's jobs and then their location facets.
// Each entry is memoized on its own, so a failed location fetch is retried
// by the next call even though the jobs are already cached.
func (s *EmployerStore) SetEmployerJobs(ctx context.Context, employerID int64, force bool) error {
	key := memo.NewKey(employerID)
	q := employerQuery(employerID)
	if err := s.jobs.Set(ctx, key, force, fetchJSON[[]Record](s.api, "employer/job/", q)); err != nil {
		return err
	}
	return s.jobLocations.Set(ctx, key, force, fetchJSON[JobLocations](s.api, "employer/job/location/", q))
}

// GetEmployerJobs returns the jobs sorted by title.
func (s *EmployerStore) GetEmployerJobs(ctx context.Context, employerID int64) []Record {
	return sortBy(s.jobs.GetOr(ctx, memo.NewKey(employerID), nil), "job_title", false)
}

// GetJobLocations returns nil until SetEmployerJobs has run.
func (s *EmployerStore) GetJobLocations(ctx context.Context, employerID int64) *JobLocations {
	locs, ok := s.jobLocations.Get(ctx, memo.NewKey(employerID))
	if !ok {
		return nil
	}
	return &locs
}

func (s *EmployerStore) SetEmployerJobDepartments(ctx context.Context, employerID int64, force bool) error {
	return s.jobDepartments.Set(ctx, memo.NewKey(employerID), force,
		fetchJSON[[]Record](s.api, "employer/job/department/", employerQuery(employerID)))
}

// GetEmployerJobDepartments returns the departments sorted by name.
func (s *EmployerStore) GetEmployerJobDepartments(ctx context.Context, employerID int64) []Record {
	return sortBy(s.jobDepartments.GetOr(ctx, memo.NewKey(employerID), nil), "name", false)
}

func (s *EmployerStore) SetEmployerReferralRequests(ctx context.Context, employerID int64, force bool) error {
	return s.referralRequests.Set(ctx, memo.NewKey(employerID), force,
		fetchJSON[[]Record](s.api, "employer/referral/request/", employerQuery(employerID)))
}

// GetEmployerReferralRequests returns the most recently modified first.
func (s *EmployerStore) GetEmployerReferralRequests(ctx context.Context, employerID int64) []Record {
	return sortBy(s.referralRequests.GetOr(ctx, memo.NewKey(employerID), nil), "modified_dt", true)
}

func (s *EmployerStore) SetEmployerBonusRules(ctx context.Context, employerID int64, force bool) error {
	return s.bonusRules.Set(ctx, memo.NewKey(employerID), force,
		fetchJSON[[]Record](s.api, "employer/bonus/rule/", employerQuery(employerID)))
}

func (s *EmployerStore) GetEmployerBonusRules(ctx context.Context, employerID int64) []Record {
	return sortBy(s.bonusRules.GetOr(ctx, memo.NewKey(employerID), nil), "order_idx", false)
}

func (s *EmployerStore) SetEmployerSocialLinks(ctx context.Context, employerID int64, force bool) error {
	return s.socialLinks.Set(ctx, memo.NewKey(employerID), force,
		fetchJSON[[]Record](s.api, "social-link-filter/", employerQuery(employerID)))
}

func (s *EmployerStore) GetEmployerSocialLinks(ctx context.Context, employerID int64) []Record {
	return s.socialLinks.GetOr(ctx, memo.NewKey(employerID), []Record{})
}

func (s *EmployerStore) SetEmployerSubscription(ctx context.Context, employerID int64, force bool) error {
	path := fmt.Sprintf("employer/subscription/%d/", employerID)
	return s.subscription.Set(ctx, memo.NewKey(employerID), force, fetchJSON[Record](s.api, path, nil))
}

func (s *EmployerStore) GetEmployerSubscription(ctx context.Context, employerID int64) (Record, bool) {
	return s.subscription.Get(ctx, memo.NewKey(employerID))
}

func (s *EmployerStore) SetEmployerJobSubscription(ctx context.Context, employerID int64, force bool) error {
	return s.jobSubscription.Set(ctx, memo.NewKey(employerID), force,
		fetchJSON[[]Record](s.api, "employer/job-subscription/", employerQuery(employerID)))
}

func (s *EmployerStore) GetEmployerJobSubscription(ctx context.Context, employerID int64) ([]Record, bool) {
	return s.jobSubscription.Get(ctx, memo.NewKey(employerID))
}

// SetEmployerPermissions loads the permission groups available to employers.
func (s *EmployerStore) SetEmployerPermissions(ctx context.Context, force bool) error {
	return s.permissionGroups.Set(ctx, memo.NewKey(), force, fetchJSON[[]Record](s.api, "employer/permission/", nil))
}

func (s *EmployerStore) GetEmployerPermissions(ctx context.Context) []Record {
	return s.permissionGroups.GetOr(ctx, memo.NewKey(), []Record{})
}

func (s *EmployerStore) SetEmployerFiles(ctx context.Context, employerID int64, force bool) error {
	return s.files.Set(ctx, memo.NewKey(employerID), force,
		fetchJSON[[]Record](s.api, "employer/file/", employerQuery(employerID)))
}

// GetEmployerFiles returns every file, or only the file with fileID when it
// is non-zero.
func (s *EmployerStore) GetEmployerFiles(ctx context.Context, employerID, fileID int64) []Record {
	files, _ := s.files.Get(ctx, memo.NewKey(employerID))
	if fileID == 0 {
		return files
	}
	for _, f := range files {
		if f.ID() == fileID {
			return []Record{f}
		}
	}
	return nil
}

func (s *EmployerStore) SetEmployerFileTags(ctx context.Context, employerID int64, force bool) error {
	return s.fileTags.Set(ctx, memo.NewKey(employerID), force,
		fetchJSON[[]Record](s.api, "employer/file-tag/", employerQuery(employerID)))
}

// GetEmployerFileTags returns the tags sorted by name.
func (s *EmployerStore) GetEmployerFileTags(ctx context.Context, employerID int64) []Record {
	return sortBy(s.fileTags.GetOr(ctx, memo.NewKey(employerID), nil), "name", false)
}

func (s *EmployerStore) SetEmployerPage(ctx context.Context, employerID int64, force bool) error {
	return s.page.Set(ctx, memo.NewKey(employerID), force,
		fetchJSON[Record](s.api, "employer/page/", employerQuery(employerID)))
}

func (s *EmployerStore) GetEmployerPage(ctx context.Context, employerID int64) (Record, bool) {
	return s.page.Get(ctx, memo.NewKey(employerID))
}

// SetEmployersFromDomain looks up employers matching the domain of email.
// An empty email is ignored.
func (s *EmployerStore) SetEmployersFromDomain(ctx context.Context, email string, force bool) error {
	if email == "" {
		return nil
	}
	return s.fromDomain.Set(ctx, memo.NewKey(email), force,
		fetchJSON[[]Record](s.api, "employer-from-domain/", url.Values{"email": {email}}))
}

func (s *EmployerStore) GetEmployersFromDomain(ctx context.Context, email string) ([]Record, bool) {
	return s.fromDomain.Get(ctx, memo.NewKey(email))
}
