package fallback

import (
	"fmt"
	"sort"

	"github.com/mbanner77/allocengine/pkg/application/services/capacity"
	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/domain/repositories"
)

// Ledger tracks how much substitute supply is still available during a
// run. Substitutes draw from the same supply snapshot as primary
// allocations, so consumption has to be remembered across stores.
type Ledger struct {
	remaining map[entities.ArticleNumber]entities.Quantity
}

// NewLedger creates a ledger from per-article availability
func NewLedger(available map[entities.ArticleNumber]entities.Quantity) *Ledger {
	remaining := make(map[entities.ArticleNumber]entities.Quantity, len(available))
	for number, qty := range available {
		remaining[number] = qty
	}
	return &Ledger{remaining: remaining}
}

// Remaining returns the untaken supply for an article
func (l *Ledger) Remaining(number entities.ArticleNumber) entities.Quantity {
	return l.remaining[number]
}

// Take consumes up to qty units and returns what was actually taken
func (l *Ledger) Take(number entities.ArticleNumber, qty entities.Quantity) entities.Quantity {
	have := l.remaining[number]
	if qty > have {
		qty = have
	}
	if qty < 0 {
		qty = 0
	}
	l.remaining[number] = have - qty
	return qty
}

// Engine substitutes an unallocatable article with an efficient alternative
// from the same product group, typically a NOS article
type Engine struct {
	articleRepo       repositories.ArticleRepository
	fallbackThreshold float64
}

// NewEngine creates a fallback engine. fallbackThreshold is the forecast
// fulfillment ratio below which substitution triggers.
func NewEngine(articleRepo repositories.ArticleRepository, fallbackThreshold float64) *Engine {
	return &Engine{articleRepo: articleRepo, fallbackThreshold: fallbackThreshold}
}

// ShouldTrigger reports whether a line qualifies for substitution:
// shortage combined with no capacity for the primary article, forecast
// fulfillment below the threshold, or MinFill unmet after rationing.
func (e *Engine) ShouldTrigger(line *entities.AllocationLine, article *entities.Article, available entities.Quantity, freeCapacity float64) bool {
	if line.MinFillUnmet {
		return true
	}
	if available < line.Demand && article.SpaceDemand(line.Demand) > freeCapacity {
		return true
	}
	if line.Demand > 0 {
		fulfillment := float64(line.FinalQty) / float64(line.Demand)
		if fulfillment < e.fallbackThreshold {
			return true
		}
	}
	return false
}

// Substitute fills a store's remaining gap with substitute articles chosen
// by descending efficiency (forecast per space unit), until the gap or the
// store's free capacity is exhausted, whichever binds first. Each
// substitution is a distinct line referencing the original article; the
// original underfilled line is left untouched.
func (e *Engine) Substitute(line *entities.AllocationLine, article *entities.Article, pools *capacity.PoolSet, ledger *Ledger) ([]entities.AllocationLine, error) {
	gap := line.Underfill()
	if gap <= 0 {
		return nil, nil
	}

	candidates, err := e.candidates(article)
	if err != nil {
		return nil, err
	}

	var substitutes []entities.AllocationLine
	for _, candidate := range candidates {
		if gap <= 0 {
			break
		}

		want := gap
		if have := ledger.Remaining(candidate.ArticleNumber); want > have {
			want = have
		}
		if want <= 0 {
			continue
		}

		granted := reservePool(pools, candidate, line.StoreID, want)
		if granted <= 0 {
			continue
		}
		taken := ledger.Take(candidate.ArticleNumber, granted)

		substitutes = append(substitutes, entities.AllocationLine{
			ArticleNumber:  candidate.ArticleNumber,
			StoreID:        line.StoreID,
			Demand:         taken,
			ProposedQty:    taken,
			FinalQty:       taken,
			Substitution:   true,
			SubstituteFor:  article.ArticleNumber,
			LimitingFactor: entities.LimitNone,
		})
		gap -= taken
	}
	return substitutes, nil
}

// candidates returns same-group NOS articles ordered by descending
// efficiency, ties broken by article number for determinism
func (e *Engine) candidates(article *entities.Article) ([]*entities.Article, error) {
	group, err := e.articleRepo.GetArticlesByGroup(article.ProductGroup)
	if err != nil {
		return nil, fmt.Errorf("failed to load substitute candidates for group %s: %w", article.ProductGroup, err)
	}

	var candidates []*entities.Article
	for _, candidate := range group {
		if candidate.ArticleNumber == article.ArticleNumber || !candidate.NOS {
			continue
		}
		candidates = append(candidates, candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ei, ej := efficiency(candidates[i]), efficiency(candidates[j])
		if ei != ej {
			return ei > ej
		}
		return candidates[i].ArticleNumber < candidates[j].ArticleNumber
	})
	return candidates, nil
}

// efficiency is forecast per occupied space unit
func efficiency(article *entities.Article) float64 {
	if article.SpacePerUnit <= 0 {
		return article.AvgDailyFcst
	}
	return article.AvgDailyFcst / article.SpacePerUnit
}

func reservePool(pools *capacity.PoolSet, article *entities.Article, storeID entities.StoreID, qty entities.Quantity) entities.Quantity {
	if article.SpacePerUnit <= 0 {
		return qty
	}
	pool := pools.Get(entities.CapacityKey{StoreID: storeID, ProductGroup: article.ProductGroup})
	if pool == nil {
		return 0
	}
	space := pool.Reserve(article.SpaceDemand(qty), false)
	units := entities.Quantity(space / article.SpacePerUnit)
	pool.Release(space - article.SpaceDemand(units))
	return units
}
