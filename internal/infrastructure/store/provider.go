// Package store serves store view settings from configuration.
package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/catalogsync/indexer/internal/domain/shared"
	"github.com/catalogsync/indexer/internal/domain/shared/valueobject"
	"github.com/catalogsync/indexer/internal/infrastructure/config"
)

type view struct {
	id         int64
	websiteID  int64
	code       string
	base       valueobject.Currency
	currencies []valueobject.Currency
	locale     string
}

// ConfigProvider implements pricing.StoreContextProvider over the configured
// store views. It is immutable after construction.
type ConfigProvider struct {
	views        map[int64]view
	groupPricing bool
}

// NewConfigProvider parses the configured stores. Currency codes are
// normalised; a base currency that is not enabled is a configuration error.
func NewConfigProvider(stores []config.StoreConfig, pricingCfg config.PricingConfig) (*ConfigProvider, error) {
	views := make(map[int64]view, len(stores))
	for _, s := range stores {
		if _, dup := views[s.ID]; dup {
			return nil, shared.NewConfigurationError("store %d configured twice", s.ID)
		}
		base, err := valueobject.ParseCurrency(s.BaseCurrency)
		if err != nil {
			return nil, shared.NewConfigurationError("store %s: base currency: %v", s.Code, err)
		}
		v := view{id: s.ID, websiteID: s.WebsiteID, code: s.Code, base: base, locale: s.Locale}

		enabled := false
		for _, code := range s.Currencies {
			cur, err := valueobject.ParseCurrency(code)
			if err != nil {
				return nil, shared.NewConfigurationError("store %s: %v", s.Code, err)
			}
			v.currencies = append(v.currencies, cur)
			enabled = enabled || cur == base
		}
		if !enabled {
			return nil, shared.NewConfigurationError("store %s: base currency %s is not enabled", s.Code, base)
		}
		views[s.ID] = v
	}
	return &ConfigProvider{views: views, groupPricing: pricingCfg.CustomerGroupsEnabled}, nil
}

func (p *ConfigProvider) view(storeID int64) (view, error) {
	v, ok := p.views[storeID]
	if !ok {
		return view{}, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("store %d is not configured", storeID))
	}
	return v, nil
}

// GetBaseCurrency returns the store's base currency
func (p *ConfigProvider) GetBaseCurrency(ctx context.Context, storeID int64) (valueobject.Currency, error) {
	v, err := p.view(storeID)
	if err != nil {
		return "", err
	}
	return v.base, nil
}

// GetEnabledCurrencies returns the store's enabled currencies in configured order
func (p *ConfigProvider) GetEnabledCurrencies(ctx context.Context, storeID int64) ([]valueobject.Currency, error) {
	v, err := p.view(storeID)
	if err != nil {
		return nil, err
	}
	return append([]valueobject.Currency(nil), v.currencies...), nil
}

// GetLocale returns the store's locale, e.g. en_US
func (p *ConfigProvider) GetLocale(ctx context.Context, storeID int64) (string, error) {
	v, err := p.view(storeID)
	if err != nil {
		return "", err
	}
	return v.locale, nil
}

// IsCustomerGroupPricingEnabled reports the global customer group pricing switch
func (p *ConfigProvider) IsCustomerGroupPricingEnabled(ctx context.Context, storeID int64) (bool, error) {
	if _, err := p.view(storeID); err != nil {
		return false, err
	}
	return p.groupPricing, nil
}

// WebsiteID returns the website the store view belongs to
func (p *ConfigProvider) WebsiteID(storeID int64) (int64, error) {
	v, err := p.view(storeID)
	if err != nil {
		return 0, err
	}
	return v.websiteID, nil
}

// StoreIDs returns the configured store ids in ascending order
func (p *ConfigProvider) StoreIDs() []int64 {
	ids := make([]int64, 0, len(p.views))
	for id := range p.views {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
