package repair

import (
	"sort"

	"github.com/mbanner77/allocengine/pkg/application/services/capacity"
	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

// Repairer rounds final quantities to pack-size multiples and reshapes
// them across the article's size curve
type Repairer struct {
	mode             entities.PackRepairMode
	minSizesPerStore int
}

// NewRepairer creates a repairer with the configured mode and the hard
// minimum of distinct sizes per store
func NewRepairer(mode entities.PackRepairMode, minSizesPerStore int) *Repairer {
	return &Repairer{mode: mode, minSizesPerStore: minSizesPerStore}
}

// RepairPack adjusts the line's final quantity to a pack-size multiple.
// Strict rounds down to the nearest multiple. Best-effort rounds to the
// nearest multiple but rounds down whenever rounding up would exceed the
// store's free capacity or the article's unallocated supply (supplySlack).
// Freed units are released back to the capacity pool.
func (r *Repairer) RepairPack(line *entities.AllocationLine, article *entities.Article, pools *capacity.PoolSet, supplySlack *entities.Quantity) {
	pack := article.PackSize
	if pack <= 1 || line.FinalQty <= 0 || line.FinalQty%pack == 0 {
		return
	}

	down := (line.FinalQty / pack) * pack
	repaired := down

	if r.mode == entities.BestEffort {
		up := down + pack
		roundUp := line.FinalQty-down >= up-line.FinalQty
		if roundUp && r.canRoundUp(line, article, pools, supplySlack, up-line.FinalQty) {
			repaired = up
		}
	}

	if repaired < line.FinalQty {
		r.releaseCapacity(line, article, pools, line.FinalQty-repaired)
		*supplySlack += line.FinalQty - repaired
	} else if repaired > line.FinalQty {
		*supplySlack -= repaired - line.FinalQty
	}

	if repaired != line.FinalQty {
		line.FinalQty = repaired
		line.LimitingFactor = entities.LimitPack
	}
}

func (r *Repairer) canRoundUp(line *entities.AllocationLine, article *entities.Article, pools *capacity.PoolSet, supplySlack *entities.Quantity, extra entities.Quantity) bool {
	if *supplySlack < extra {
		return false
	}
	if article.SpacePerUnit <= 0 {
		return true
	}
	pool := pools.Get(entities.CapacityKey{StoreID: line.StoreID, ProductGroup: article.ProductGroup})
	if pool == nil {
		return false
	}
	space := article.SpaceDemand(extra)
	granted := pool.Reserve(space, false)
	if granted >= space {
		return true
	}
	pool.Release(granted)
	return false
}

func (r *Repairer) releaseCapacity(line *entities.AllocationLine, article *entities.Article, pools *capacity.PoolSet, freed entities.Quantity) {
	if article.SpacePerUnit <= 0 {
		return
	}
	if pool := pools.Get(entities.CapacityKey{StoreID: line.StoreID, ProductGroup: article.ProductGroup}); pool != nil {
		pool.Release(article.SpaceDemand(freed))
	}
}

// RepairSizes distributes the line's final quantity across the article's
// size curve proportional to target share, then enforces the distinct-size
// floor: when fewer than minSizesPerStore sizes carry units, one unit is
// moved from the fullest size to each empty size, accepting the slight
// target-share deviation. The floor can never exceed the line quantity or
// the number of sizes on the curve.
func (r *Repairer) RepairSizes(line *entities.AllocationLine, article *entities.Article) {
	if !article.HasSizeCurve() || line.FinalQty <= 0 {
		return
	}

	curve := article.SizeCurve
	quantities := distributeByShare(line.FinalQty, curve)

	floor := r.minSizesPerStore
	if floor > len(curve) {
		floor = len(curve)
	}
	if entities.Quantity(floor) > line.FinalQty {
		floor = int(line.FinalQty)
	}

	for countNonzero(quantities) < floor {
		donor := fullestSize(quantities)
		recipient := firstEmptySize(quantities)
		if donor < 0 || recipient < 0 || quantities[donor] <= 1 {
			break
		}
		quantities[donor]--
		quantities[recipient]++
		line.LimitingFactor = entities.LimitSize
	}

	line.Sizes = make([]entities.SizeQuantity, len(curve))
	for i, share := range curve {
		line.Sizes[i] = entities.SizeQuantity{Size: share.Size, Qty: quantities[i]}
	}
}

// distributeByShare splits total across the curve by target share using
// largest-remainder rounding so the parts always sum to the total
func distributeByShare(total entities.Quantity, curve []entities.SizeShare) []entities.Quantity {
	var shareSum float64
	for _, share := range curve {
		shareSum += share.TargetShare
	}
	if shareSum <= 0 {
		shareSum = float64(len(curve))
	}

	quantities := make([]entities.Quantity, len(curve))
	type remainder struct {
		index int
		frac  float64
	}
	remainders := make([]remainder, 0, len(curve))

	var distributed entities.Quantity
	for i, share := range curve {
		portion := share.TargetShare / shareSum
		if share.TargetShare <= 0 && shareSum == float64(len(curve)) {
			portion = 1 / float64(len(curve))
		}
		exact := float64(total) * portion
		quantities[i] = entities.Quantity(exact)
		distributed += quantities[i]
		remainders = append(remainders, remainder{index: i, frac: exact - float64(quantities[i])})
	}

	sort.SliceStable(remainders, func(i, j int) bool { return remainders[i].frac > remainders[j].frac })
	for leftover := total - distributed; leftover > 0; leftover-- {
		quantities[remainders[0].index]++
		remainders = append(remainders[1:], remainders[0])
	}
	return quantities
}

func countNonzero(quantities []entities.Quantity) int {
	count := 0
	for _, qty := range quantities {
		if qty > 0 {
			count++
		}
	}
	return count
}

func fullestSize(quantities []entities.Quantity) int {
	best, bestQty := -1, entities.Quantity(0)
	for i, qty := range quantities {
		if qty > bestQty {
			best, bestQty = i, qty
		}
	}
	return best
}

func firstEmptySize(quantities []entities.Quantity) int {
	for i, qty := range quantities {
		if qty == 0 {
			return i
		}
	}
	return -1
}
