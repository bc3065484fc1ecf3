// services/pricing.go
package services

import (
	"sort"

	"prosthelab-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceEntry is one catalog service priced for a specific client.
// DisplayPrice equals the client's price-table override when one exists,
// otherwise the standard price.
type PriceEntry struct {
	ServiceID     uuid.UUID       `json:"serviceId"`
	Name          string          `json:"name"`
	StandardPrice decimal.Decimal `json:"standardPrice"`
	DisplayPrice  decimal.Decimal `json:"displayPrice"`
	HasOverride   bool            `json:"hasOverride"`
}

type PriceGroup struct {
	Material string       `json:"material"`
	Entries  []PriceEntry `json:"entries"`
}

// ResolveClientPrices produces the effective price list a client sees,
// grouped by material. Pure function of its inputs: a client with no price
// table (or a dangling reference) falls back to standard prices, and
// overrides for services no longer in the catalog contribute nothing.
func ResolveClientPrices(client models.Client, catalog []models.Service, tables []models.PriceTable) []PriceGroup {
	overrides := clientOverrides(client, tables)

	byMaterial := make(map[string][]PriceEntry)
	for _, svc := range catalog {
		entry := PriceEntry{
			ServiceID:     svc.ID,
			Name:          svc.Name,
			StandardPrice: svc.StandardPrice,
			DisplayPrice:  svc.StandardPrice,
		}
		if custom, ok := overrides[svc.ID]; ok {
			entry.DisplayPrice = custom
			entry.HasOverride = true
		}
		byMaterial[svc.Material] = append(byMaterial[svc.Material], entry)
	}

	groups := make([]PriceGroup, 0, len(byMaterial))
	for material, entries := range byMaterial {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Name < entries[j].Name
		})
		groups = append(groups, PriceGroup{Material: material, Entries: entries})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Material < groups[j].Material
	})

	return groups
}

// EffectivePrices flattens the resolved list into a serviceID -> unit price
// lookup, used when snapshotting prices onto new order lines.
func EffectivePrices(client models.Client, catalog []models.Service, tables []models.PriceTable) map[uuid.UUID]decimal.Decimal {
	overrides := clientOverrides(client, tables)

	prices := make(map[uuid.UUID]decimal.Decimal, len(catalog))
	for _, svc := range catalog {
		if custom, ok := overrides[svc.ID]; ok {
			prices[svc.ID] = custom
			continue
		}
		prices[svc.ID] = svc.StandardPrice
	}
	return prices
}

func clientOverrides(client models.Client, tables []models.PriceTable) map[uuid.UUID]decimal.Decimal {
	overrides := make(map[uuid.UUID]decimal.Decimal)
	if client.PriceTableID == nil {
		return overrides
	}
	for _, table := range tables {
		if table.ID != *client.PriceTableID {
			continue
		}
		for _, item := range table.Items {
			// Non-positive overrides are never stored, but tolerate them
			if item.CustomPrice.IsPositive() {
				overrides[item.ServiceID] = item.CustomPrice
			}
		}
		break
	}
	return overrides
}
