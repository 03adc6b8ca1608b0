package store

import (
	"context"

	"github.com/jobvyne/navguard/internal/memo"
)

// KarmaStore caches the organizations users can donate to.
type KarmaStore struct {
	api           Getter
	organizations *memo.Memo[[]Record]
}

func NewKarmaStore(api Getter, cache *Cache) *KarmaStore {
	return &KarmaStore{api: api, organizations: newMemo[[]Record](cache, "karma-donation-organizations")}
}

func (s *KarmaStore) SetDonationOrganizations(ctx context.Context, force bool) error {
	return s.organizations.Set(ctx, memo.NewKey(), force,
		fetchJSON[[]Record](s.api, "karma/donation-organization/", nil))
}

func (s *KarmaStore) GetDonationOrganizations(ctx context.Context) []Record {
	return s.organizations.GetOr(ctx, memo.NewKey(), []Record{})
}

// BillingStore caches the billing product catalog.
type BillingStore struct {
	api      Getter
	products *memo.Memo[[]Record]
}

func NewBillingStore(api Getter, cache *Cache) *BillingStore {
	return &BillingStore{api: api, products: newMemo[[]Record](cache, "billing-products")}
}

func (s *BillingStore) SetProducts(ctx context.Context, force bool) error {
	return s.products.Set(ctx, memo.NewKey(), force, fetchJSON[[]Record](s.api, "billing/product/", nil))
}

func (s *BillingStore) GetProducts(ctx context.Context) []Record {
	return s.products.GetOr(ctx, memo.NewKey(), []Record{})
}

// SocialStore caches the social platforms users can link.
type SocialStore struct {
	api       Getter
	platforms *memo.Memo[[]Record]
}

func NewSocialStore(api Getter, cache *Cache) *SocialStore {
	return &SocialStore{api: api, platforms: newMemo[[]Record](cache, "social-platforms")}
}

func (s *SocialStore) SetPlatforms(ctx context.Context, force bool) error {
	return s.platforms.Set(ctx, memo.NewKey(), force, fetchJSON[[]Record](s.api, "social-platform/", nil))
}

func (s *SocialStore) GetPlatforms(ctx context.Context) []Record {
	return s.platforms.GetOr(ctx, memo.NewKey(), []Record{})
}
