package orchestration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mbanner77/allocengine/pkg/application/dto"
	"github.com/mbanner77/allocengine/pkg/application/services/capacity"
	"github.com/mbanner77/allocengine/pkg/application/services/demand"
	"github.com/mbanner77/allocengine/pkg/application/services/fallback"
	"github.com/mbanner77/allocengine/pkg/application/services/kpi"
	"github.com/mbanner77/allocengine/pkg/application/services/priority"
	"github.com/mbanner77/allocengine/pkg/application/services/rationing"
	"github.com/mbanner77/allocengine/pkg/application/services/recipient"
	"github.com/mbanner77/allocengine/pkg/application/services/repair"
	"github.com/mbanner77/allocengine/pkg/application/services/solver"
	"github.com/mbanner77/allocengine/pkg/application/services/supply"
	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/domain/repositories"
	"github.com/mbanner77/allocengine/pkg/infrastructure/events"
)

// Logger is the minimal structured logging surface the orchestrator needs
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}

// Orchestrator runs the full allocation pipeline: recipient resolution,
// demand estimation, supply aggregation, capacity snapshot, solving,
// rationing, fallback substitution, pack/size repair and finalization.
// One run processes one immutable snapshot of its inputs to completion;
// no partial results are visible before the run finishes.
type Orchestrator struct {
	storeRepo    repositories.StoreRepository
	articleRepo  repositories.ArticleRepository
	demandRepo   repositories.DemandRepository
	supplyRepo   repositories.SupplyRepository
	capacityRepo repositories.CapacityRepository

	journal events.EventStore
	logger  Logger
	workers int
}

// Option configures the orchestrator
type Option func(*Orchestrator)

// WithJournal attaches a run journal for the audit trail
func WithJournal(journal events.EventStore) Option {
	return func(o *Orchestrator) { o.journal = journal }
}

// WithLogger attaches a structured logger
func WithLogger(logger Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithWorkers bounds the per-article fan-out
func WithWorkers(workers int) Option {
	return func(o *Orchestrator) {
		if workers > 0 {
			o.workers = workers
		}
	}
}

// NewOrchestrator creates a run orchestrator over the given input
// repositories
func NewOrchestrator(
	storeRepo repositories.StoreRepository,
	articleRepo repositories.ArticleRepository,
	demandRepo repositories.DemandRepository,
	supplyRepo repositories.SupplyRepository,
	capacityRepo repositories.CapacityRepository,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		storeRepo:    storeRepo,
		articleRepo:  articleRepo,
		demandRepo:   demandRepo,
		supplyRepo:   supplyRepo,
		capacityRepo: capacityRepo,
		logger:       nopLogger{},
		workers:      4,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// articleWork is the per-article slice of the pipeline
type articleWork struct {
	article   *entities.Article
	available entities.Quantity
	lines     []*entities.DemandLine
}

// Execute performs one allocation run for the variant's policy. The run
// either completes (possibly with warnings and underfill exceptions) or
// aborts wholesale on internally inconsistent input data.
func (o *Orchestrator) Execute(ctx context.Context, variant *entities.Variant, input recipient.Input) (*dto.RunResult, error) {
	policy := variant.Policy
	runID := entities.RunID(uuid.NewString())
	startedAt := time.Now()

	o.publish(string(runID), events.RunStartedEvent, events.RunStarted{
		RunID:     runID,
		VariantID: variant.ID,
		Strategy:  policy.Solver.String(),
	})

	// Stage 1: recipient determination.
	resolution, err := o.resolveRecipients(policy, input)
	if err != nil {
		return nil, err
	}
	o.stageDone(runID, "recipients", resolution.IncludedCount())

	// Stage 2: demand estimation over the eligible store set.
	estimated, exceptions, err := o.estimateDemand(policy, resolution)
	if err != nil {
		return nil, err
	}
	o.stageDone(runID, "demand", len(estimated))

	// Stage 3: supply aggregation.
	aggregator := supply.NewAggregator(o.supplyRepo)
	availabilities, supplyExceptions, err := aggregator.AggregateAll()
	if err != nil {
		return nil, err
	}
	exceptions = append(exceptions, supplyExceptions...)
	available := make(map[entities.ArticleNumber]entities.Quantity, len(availabilities))
	for _, availability := range availabilities {
		available[availability.ArticleNumber] = availability.Available
	}
	o.stageDone(runID, "supply", len(availabilities))

	// Stage 4: capacity snapshot. Inconsistent capacity data aborts the
	// whole run instead of producing undefined numbers.
	provider := capacity.NewProvider(o.capacityRepo, policy.SoftZonePct)
	pools, err := provider.Snapshot()
	if err != nil {
		o.publish(string(runID), events.RunAbortedEvent, events.RunAborted{RunID: runID, Reason: err.Error()})
		o.logger.Warn("allocation run aborted", "run", runID, "error", err)
		return nil, fmt.Errorf("allocation run %s aborted: %w", runID, err)
	}
	o.stageDone(runID, "capacity", pools.Size())

	// Stages 5-7: solve or ration per article. Articles are independent;
	// the shared capacity pools serialize internally.
	work, err := o.buildWork(estimated, available)
	if err != nil {
		return nil, err
	}
	exceptions = append(exceptions, capacityGaps(work, pools)...)
	lines, err := o.allocateAll(ctx, policy, work, pools)
	if err != nil {
		return nil, err
	}
	o.stageDone(runID, "solve", len(lines))

	// Stage 8: fallback substitution for unserved positions.
	lines, err = o.substitute(runID, policy, work, lines, available, pools)
	if err != nil {
		return nil, err
	}
	o.stageDone(runID, "fallback", len(lines))

	// Stage 9: pack-size and size-curve repair.
	o.repairAll(policy, work, lines, available, pools)
	o.stageDone(runID, "repair", len(lines))

	// Finalization: exception accounting, KPI rollup, freeze.
	for i := range lines {
		if !lines[i].Substitution && lines[i].FinalQty < lines[i].Demand {
			exceptions = append(exceptions, entities.Exception{
				Kind:          entities.UnderfillException,
				ArticleNumber: lines[i].ArticleNumber,
				StoreID:       lines[i].StoreID,
				Message:       fmt.Sprintf("underfilled: demand %d allocated %d", lines[i].Demand, lines[i].FinalQty),
				At:            time.Now(),
			})
		}
	}
	for _, exception := range exceptions {
		o.publish(string(runID), events.ExceptionRecordedEvent, events.ExceptionRecorded{RunID: runID, Exception: exception})
	}
	sortLines(lines)

	run := &entities.AllocationRun{
		ID:         runID,
		VariantID:  variant.ID,
		Status:     entities.RunCompleted,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Lines:      lines,
		Exceptions: exceptions,
		KPIs:       kpi.Rollup(lines, exceptions),
	}
	o.publish(string(runID), events.RunFinalizedEvent, events.RunFinalized{RunID: runID, KPIs: run.KPIs})
	o.logger.Info("allocation run finalized",
		"run", runID,
		"lines", len(run.Lines),
		"exceptions", len(run.Exceptions),
		"coverage", run.KPIs.CoveragePct)

	result := &dto.RunResult{Run: run, EligibleStores: resolution.Eligible}
	for _, exclusion := range resolution.Excluded {
		result.Excluded = append(result.Excluded, dto.ExclusionRecord{
			StoreID: exclusion.StoreID,
			Reason:  exclusion.Reason.String(),
		})
	}
	return result, nil
}

func (o *Orchestrator) resolveRecipients(policy entities.PolicyParameters, input recipient.Input) (*recipient.Resolution, error) {
	if input.PlanDataStores == nil {
		demandLines, err := o.demandRepo.GetDemandLines()
		if err != nil {
			return nil, fmt.Errorf("failed to load demand lines: %w", err)
		}
		input.PlanDataStores = make(map[entities.StoreID]bool)
		for _, line := range demandLines {
			if line.PlanQty > 0 {
				input.PlanDataStores[line.StoreID] = true
			}
		}
	}
	resolver := recipient.NewResolver(o.storeRepo)
	return resolver.Resolve(policy.Strategy, input)
}

func (o *Orchestrator) estimateDemand(policy entities.PolicyParameters, resolution *recipient.Resolution) ([]*entities.DemandLine, []entities.Exception, error) {
	demandLines, err := o.demandRepo.GetDemandLines()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load demand lines: %w", err)
	}

	eligible := make(map[entities.StoreID]bool, len(resolution.Eligible))
	for _, storeID := range resolution.Eligible {
		eligible[storeID] = true
	}
	var inScope []*entities.DemandLine
	for _, line := range demandLines {
		if eligible[line.StoreID] {
			inScope = append(inScope, line)
		}
	}

	var estimated *demand.Result
	if policy.Mode == entities.Replenishment {
		estimated = estimateReplenishment(policy, inScope)
	} else {
		estimator := demand.NewEstimator(policy.ForecastWeight)
		estimated = estimator.EstimateInitial(inScope)
	}

	var exceptions []entities.Exception
	for _, line := range estimated.Lines {
		if !line.HasForecast {
			exceptions = append(exceptions, entities.Exception{
				Kind:          entities.DataGapWarning,
				ArticleNumber: line.ArticleNumber,
				StoreID:       line.StoreID,
				Message:       "forecast missing, demand computed plan-only",
				At:            time.Now(),
			})
		}
	}
	return estimated.Lines, exceptions, nil
}

// estimateReplenishment nets target stock against the current per-store
// position and carries the resulting need through the same demand pipeline
// the initial-allocation path uses.
func estimateReplenishment(policy entities.PolicyParameters, inScope []*entities.DemandLine) *demand.Result {
	params := policy.Replenishment
	safety := demand.SafetyStock(entities.ReplenishmentParams{
		ServiceLevelZ: params.ServiceLevelZ,
		DemandStdDev:  params.DemandStdDev,
		LeadTimeDays:  params.LeadTimeDays,
	})

	result := &demand.Result{Lines: make([]*entities.DemandLine, 0, len(inScope))}
	replenishment := make([]*entities.ReplenishmentLine, 0, len(inScope))
	for _, line := range inScope {
		forecast := line.ForecastQty
		if !line.HasForecast {
			forecast = 0
			result.MissingForecasts++
		}
		replenishment = append(replenishment, &entities.ReplenishmentLine{
			ArticleNumber:   line.ArticleNumber,
			StoreID:         line.StoreID,
			ForecastDemand:  forecast,
			SafetyStock:     safety,
			PresentationMin: params.PresentationMin,
			OnHand:          line.OnHand,
			Inbound:         line.Inbound,
		})
	}

	needs := demand.NewEstimator(0).EstimateReplenishment(replenishment)
	for i, need := range needs {
		estimated := *inScope[i]
		estimated.Demand = need.Need
		result.Lines = append(result.Lines, &estimated)
	}
	return result
}

func (o *Orchestrator) buildWork(lines []*entities.DemandLine, available map[entities.ArticleNumber]entities.Quantity) ([]*articleWork, error) {
	byArticle := make(map[entities.ArticleNumber][]*entities.DemandLine)
	for _, line := range lines {
		byArticle[line.ArticleNumber] = append(byArticle[line.ArticleNumber], line)
	}

	work := make([]*articleWork, 0, len(byArticle))
	for number, articleLines := range byArticle {
		article, err := o.articleRepo.GetArticle(number)
		if err != nil {
			return nil, fmt.Errorf("failed to load article %s: %w", number, err)
		}
		work = append(work, &articleWork{
			article:   article,
			available: available[number],
			lines:     articleLines,
		})
	}
	sort.Slice(work, func(i, j int) bool {
		return work[i].article.ArticleNumber < work[j].article.ArticleNumber
	})
	return work, nil
}

// capacityGaps reports every line whose (store, productGroup) pool is
// absent from the capacity snapshot. Those stores fall back to zero free
// capacity; the gap is a warning, not an abort.
func capacityGaps(work []*articleWork, pools *capacity.PoolSet) []entities.Exception {
	var gaps []entities.Exception
	for _, item := range work {
		if item.article.SpacePerUnit <= 0 {
			continue
		}
		for _, line := range item.lines {
			key := entities.CapacityKey{StoreID: line.StoreID, ProductGroup: item.article.ProductGroup}
			if pools.Get(key) != nil {
				continue
			}
			gaps = append(gaps, entities.Exception{
				Kind:          entities.DataGapWarning,
				ArticleNumber: line.ArticleNumber,
				StoreID:       line.StoreID,
				Message:       "capacity snapshot missing, free capacity assumed zero",
				At:            time.Now(),
			})
		}
	}
	return gaps
}

// allocateAll fans out per article with a bounded worker count. Appends to
// the shared result go through a mutex; capacity pools lock themselves.
func (o *Orchestrator) allocateAll(ctx context.Context, policy entities.PolicyParameters, work []*articleWork, pools *capacity.PoolSet) ([]entities.AllocationLine, error) {
	strategy, err := solver.New(policy.Solver, policy.UnderfillPenalty, policy.OvercapPenalty)
	if err != nil {
		return nil, err
	}
	rationer := rationing.NewEngine(policy.RationingCap, policy.MinFillPct)
	var scorer *priority.Scorer
	if policy.Mode == entities.Replenishment {
		scorer = priority.NewScorer(policy.Scores, policy.Replenishment.UrgencyDays)
	}

	var (
		mu    sync.Mutex
		lines []entities.AllocationLine
		wg    sync.WaitGroup
		sem   = make(chan struct{}, o.workers)
	)
	for _, item := range work {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(item *articleWork) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			allocated := o.allocateArticle(strategy, rationer, scorer, policy, item, pools)
			mu.Lock()
			lines = append(lines, allocated...)
			mu.Unlock()
		}(item)
	}
	wg.Wait()
	return lines, nil
}

// allocateArticle solves one article. Rationing takes over only when the
// article's aggregate demand exceeds its available supply.
func (o *Orchestrator) allocateArticle(strategy solver.Strategy, rationer *rationing.Engine, scorer *priority.Scorer, policy entities.PolicyParameters, item *articleWork, pools *capacity.PoolSet) []entities.AllocationLine {
	var totalDemand entities.Quantity
	for _, line := range item.lines {
		totalDemand += line.Demand
	}

	if totalDemand > item.available {
		return o.rationArticle(rationer, item, pools)
	}

	request := &solver.Request{
		Article: item.article,
		Supply:  item.available,
		Pools:   pools,
	}
	for _, line := range item.lines {
		request.Lines = append(request.Lines, solver.Line{
			StoreID:  line.StoreID,
			Demand:   line.Demand,
			Coverage: coverage(line),
			Score:    lineScore(scorer, policy, item.article, line),
		})
	}
	return strategy.Allocate(request)
}

// rationArticle runs the rationing loop against the current pool state and
// then reserves the granted quantities, clamping where a parallel article
// consumed the space first.
func (o *Orchestrator) rationArticle(rationer *rationing.Engine, item *articleWork, pools *capacity.PoolSet) []entities.AllocationLine {
	rationLines := make([]rationing.Line, 0, len(item.lines))
	for _, line := range item.lines {
		rationLines = append(rationLines, rationing.Line{
			StoreID: line.StoreID,
			Need:    line.Demand,
			CapMax:  o.capacityUnits(item.article, line.StoreID, pools),
		})
	}

	result := rationer.Ration(item.article.ArticleNumber, item.available, rationLines)
	for i := range result.Lines {
		o.reserveFinal(item.article, &result.Lines[i], pools)
	}
	return result.Lines
}

// capacityUnits converts a pool's free space into whole article units
func (o *Orchestrator) capacityUnits(article *entities.Article, storeID entities.StoreID, pools *capacity.PoolSet) entities.Quantity {
	if article.SpacePerUnit <= 0 {
		return entities.Quantity(1<<62 - 1)
	}
	free := pools.Free(entities.CapacityKey{StoreID: storeID, ProductGroup: article.ProductGroup})
	return entities.Quantity(free / article.SpacePerUnit)
}

func (o *Orchestrator) reserveFinal(article *entities.Article, line *entities.AllocationLine, pools *capacity.PoolSet) {
	if article.SpacePerUnit <= 0 || line.FinalQty <= 0 {
		return
	}
	pool := pools.Get(entities.CapacityKey{StoreID: line.StoreID, ProductGroup: article.ProductGroup})
	if pool == nil {
		line.FinalQty = 0
		line.ProposedQty = 0
		line.LimitingFactor = entities.LimitCapacity
		return
	}
	space := article.SpaceDemand(line.FinalQty)
	granted := pool.Reserve(space, false)
	if granted < space {
		units := entities.Quantity(granted / article.SpacePerUnit)
		pool.Release(granted - article.SpaceDemand(units))
		line.FinalQty = units
		line.ProposedQty = units
		line.LimitingFactor = entities.LimitCapacity
	}
}

// substitute runs the fallback engine sequentially in deterministic line
// order, drawing substitute supply from the post-allocation ledger
func (o *Orchestrator) substitute(runID entities.RunID, policy entities.PolicyParameters, work []*articleWork, lines []entities.AllocationLine, available map[entities.ArticleNumber]entities.Quantity, pools *capacity.PoolSet) ([]entities.AllocationLine, error) {
	remaining := make(map[entities.ArticleNumber]entities.Quantity, len(available))
	for number, qty := range available {
		remaining[number] = qty
	}
	for _, line := range lines {
		remaining[line.ArticleNumber] -= line.FinalQty
	}
	ledger := fallback.NewLedger(remaining)

	articles := make(map[entities.ArticleNumber]*entities.Article, len(work))
	for _, item := range work {
		articles[item.article.ArticleNumber] = item.article
	}

	engine := fallback.NewEngine(o.articleRepo, policy.FallbackThreshold)
	sortLines(lines)

	var substitutes []entities.AllocationLine
	for i := range lines {
		line := &lines[i]
		article := articles[line.ArticleNumber]
		if article == nil {
			continue
		}
		free := pools.Free(entities.CapacityKey{StoreID: line.StoreID, ProductGroup: article.ProductGroup})
		if !engine.ShouldTrigger(line, article, available[line.ArticleNumber], free) {
			continue
		}
		subs, err := engine.Substitute(line, article, pools, ledger)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			o.publish(string(runID), events.SubstitutionRecordedEvent, events.SubstitutionRecorded{
				RunID:      runID,
				StoreID:    sub.StoreID,
				Original:   line.ArticleNumber,
				Substitute: sub.ArticleNumber,
				Qty:        sub.FinalQty,
			})
		}
		substitutes = append(substitutes, subs...)
	}
	return append(lines, substitutes...), nil
}

// repairAll applies pack and size-curve repair to every line. The per-
// article supply slack available for best-effort round-ups is whatever the
// earlier stages left unallocated.
func (o *Orchestrator) repairAll(policy entities.PolicyParameters, work []*articleWork, lines []entities.AllocationLine, available map[entities.ArticleNumber]entities.Quantity, pools *capacity.PoolSet) {
	articles := make(map[entities.ArticleNumber]*entities.Article, len(work))
	for _, item := range work {
		articles[item.article.ArticleNumber] = item.article
	}

	slack := make(map[entities.ArticleNumber]entities.Quantity, len(available))
	for number, qty := range available {
		slack[number] = qty
	}
	for _, line := range lines {
		slack[line.ArticleNumber] -= line.FinalQty
	}

	repairer := repairerFor(policy)
	for i := range lines {
		line := &lines[i]
		article := articles[line.ArticleNumber]
		if article == nil {
			var err error
			article, err = o.articleRepo.GetArticle(line.ArticleNumber)
			if err != nil {
				continue
			}
			articles[line.ArticleNumber] = article
		}
		articleSlack := slack[line.ArticleNumber]
		repairer.RepairPack(line, article, pools, &articleSlack)
		slack[line.ArticleNumber] = articleSlack
		repairer.RepairSizes(line, article)
	}
}

func (o *Orchestrator) stageDone(runID entities.RunID, stage string, count int) {
	o.publish(string(runID), events.StageCompletedEvent, events.StageCompleted{RunID: runID, Stage: stage, Lines: count})
}

func (o *Orchestrator) publish(streamID, eventType string, data interface{}) {
	if o.journal == nil {
		return
	}
	_ = o.journal.AppendEvent(streamID, events.NewEvent(eventType, streamID, data))
}

func repairerFor(policy entities.PolicyParameters) *repair.Repairer {
	return repair.NewRepairer(policy.PackRepair, policy.MinSizesPerStore)
}

// lineScore evaluates the store's replenishment priority for the solver.
// Initial-allocation runs carry no scorer; their lines score zero and the
// solver falls back to coverage tie-breaks.
func lineScore(scorer *priority.Scorer, policy entities.PolicyParameters, article *entities.Article, line *entities.DemandLine) float64 {
	if scorer == nil {
		return 0
	}
	cov := coverage(line)
	overstock := cov - policy.Replenishment.TargetService
	if overstock < 0 {
		overstock = 0
	}
	return scorer.Score(&entities.StorePosition{
		ArticleNumber:   line.ArticleNumber,
		StoreID:         line.StoreID,
		OnHand:          line.OnHand,
		Inbound:         line.Inbound,
		AvgDailySales:   article.AvgDailyFcst,
		TargetService:   policy.Replenishment.TargetService,
		Coverage:        cov,
		OverstockFactor: overstock,
	}).Score
}

// coverage is the tie-break input: how much of the line's demand the store
// position already covers
func coverage(line *entities.DemandLine) float64 {
	if line.Demand <= 0 {
		return 1
	}
	return float64(line.OnHand+line.Inbound) / float64(line.Demand)
}

// sortLines orders lines by article, store, substitutes last within a pair
func sortLines(lines []entities.AllocationLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].ArticleNumber != lines[j].ArticleNumber {
			return lines[i].ArticleNumber < lines[j].ArticleNumber
		}
		if lines[i].StoreID != lines[j].StoreID {
			return lines[i].StoreID < lines[j].StoreID
		}
		return !lines[i].Substitution && lines[j].Substitution
	})
}
