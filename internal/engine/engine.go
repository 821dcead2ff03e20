// Package engine orchestrates catalog cycles: the full discovery build and
// the incremental update (shard re-verification plus a small discovery
// crawl), ending in a persisted snapshot, rotation state, and a cycle
// report.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/catalog"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/change"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/config"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/crawler"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/limiter"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/merge"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/metrics"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/persist"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/report"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/rotation"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/store"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/upload"
)

// clearThreshold is the number of new rows a category must gain in one run
// for its incomplete marker to be cleared.
const clearThreshold = 15

// IDGenerator mints run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Progress is a point-in-time view of the running cycle, served by the
// progress endpoint.
type Progress struct {
	RunID       string    `json:"run_id"`
	Mode        string    `json:"mode"`
	Phase       string    `json:"phase"`
	StartedAt   time.Time `json:"started_at"`
	Rows        int       `json:"rows"`
	CheckedRows int       `json:"checked_rows"`
	UpdatedRows int       `json:"updated_rows"`
	NewRows     int       `json:"new_rows"`
}

// Deps bundles the collaborators an Engine needs.
type Deps struct {
	Config    config.Config
	Products  *store.ProductStore
	Detector  *change.Detector
	Crawler   *crawler.Crawler
	Snapshots *persist.Store
	Uploader  *upload.Uploader
	Publisher catalog.Publisher
	Clock     catalog.Clock
	IDs       IDGenerator
	Logger    *zap.Logger
}

// Engine runs catalog cycles.
type Engine struct {
	cfg       config.Config
	products  *store.ProductStore
	detector  *change.Detector
	crawler   *crawler.Crawler
	snapshots *persist.Store
	uploader  *upload.Uploader
	publisher catalog.Publisher
	clock     catalog.Clock
	ids       IDGenerator
	logger    *zap.Logger

	mu       sync.RWMutex
	progress Progress
}

// New constructs an Engine.
func New(deps Deps) *Engine {
	return &Engine{
		cfg:       deps.Config,
		products:  deps.Products,
		detector:  deps.Detector,
		crawler:   deps.Crawler,
		snapshots: deps.Snapshots,
		uploader:  deps.Uploader,
		publisher: deps.Publisher,
		clock:     deps.Clock,
		ids:       deps.IDs,
		logger:    deps.Logger,
	}
}

// Progress returns a copy of the current cycle progress.
func (e *Engine) Progress() Progress {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.progress
}

func (e *Engine) setProgress(update func(*Progress)) {
	e.mu.Lock()
	update(&e.progress)
	e.mu.Unlock()
}

// RunBuild performs a full discovery build from the strategic seeds and
// persists the resulting catalog as run zero of a new rotation.
func (e *Engine) RunBuild(ctx context.Context) (*report.Report, error) {
	start := e.clock.Now()
	runID, err := e.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("mint run id: %w", err)
	}
	e.setProgress(func(p *Progress) {
		*p = Progress{RunID: runID, Mode: "build", Phase: "crawling", StartedAt: start}
	})
	e.logger.Info("full build starting",
		zap.String("run_id", runID),
		zap.Int("seeds", len(e.cfg.Crawler.Seeds)),
		zap.Int("max_products", e.cfg.Crawler.MaxProducts),
	)

	tracker := limiter.NewTracker(func(categoryID string) int {
		return limiter.LimitFor(categoryID, e.cfg.Crawler.BaseCategoryLimit, e.cfg.Crawler.MaxCategorySize)
	}, e.cfg.Crawler.MaxCategorySize)

	res, err := e.crawler.Crawl(ctx, e.cfg.Crawler.Seeds, nil, e.cfg.Crawler.MaxProducts, tracker)
	if err != nil {
		return nil, fmt.Errorf("build crawl: %w", err)
	}
	e.setProgress(func(p *Progress) {
		p.Phase = "persisting"
		p.Rows = len(res.Rows)
		p.NewRows = len(res.Rows)
	})

	built := &catalog.Catalog{Rows: res.Rows}
	rep, err := e.finishCycle(ctx, cycleOutcome{
		runID:      runID,
		mode:       "build",
		startedAt:  start,
		merged:     built,
		newRows:    len(res.Rows),
		incomplete: res.IncompleteCategories,
		shardIndex: 0,
		nextShard:  0,
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// RunUpdate performs one incremental cycle: re-verify the due shard, run a
// budgeted discovery crawl, merge, persist, and advance the rotation. When
// no catalog or rotation state exists yet it falls back to a full build.
func (e *Engine) RunUpdate(ctx context.Context) (*report.Report, error) {
	existing, st, ok, err := e.loadState()
	if err != nil {
		return nil, err
	}
	if !ok {
		e.logger.Info("no prior catalog or rotation state, running full build")
		return e.RunBuild(ctx)
	}

	start := e.clock.Now()
	runID, err := e.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("mint run id: %w", err)
	}
	e.setProgress(func(p *Progress) {
		*p = Progress{RunID: runID, Mode: "update", Phase: "re-verifying", StartedAt: start, Rows: existing.Len()}
	})
	e.logger.Info("update cycle starting",
		zap.String("run_id", runID),
		zap.Int("shard", st.ShardIndex),
		zap.Int("rows", existing.Len()),
		zap.Strings("incomplete_categories", st.IncompleteCategoryIDs),
	)

	updatedRows, checked, err := e.reverifyShard(ctx, existing, st.ShardIndex)
	if err != nil {
		return nil, err
	}
	e.setProgress(func(p *Progress) {
		p.Phase = "discovering"
		p.CheckedRows = checked
		p.UpdatedRows = len(updatedRows)
	})

	res, err := e.discover(ctx, existing, st.IncompleteCategoryIDs)
	if err != nil {
		return nil, err
	}
	e.setProgress(func(p *Progress) {
		p.Phase = "merging"
		p.NewRows = len(res.Rows)
	})

	merger := merge.NewFromCatalog(existing)
	merged, err := merger.Merge(existing, updatedRows, res.Rows)
	if err != nil {
		return nil, fmt.Errorf("merge cycle rows: %w", err)
	}

	incomplete := carryIncomplete(st.IncompleteCategoryIDs, res.IncompleteCategories, res.Rows)

	rep, err := e.finishCycle(ctx, cycleOutcome{
		runID:      runID,
		mode:       "update",
		startedAt:  start,
		merged:     merged,
		checked:    checked,
		updated:    len(updatedRows),
		newRows:    len(res.Rows),
		incomplete: incomplete,
		shardIndex: st.ShardIndex,
		nextShard:  rotation.Advance(st.ShardIndex),
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// loadState loads the current catalog and rotation state. ok is false when
// either is missing, which sends the caller down the full-build path.
func (e *Engine) loadState() (*catalog.Catalog, rotation.State, bool, error) {
	st, found, err := rotation.Load(e.cfg.Rotation.StatePath)
	if err != nil {
		return nil, rotation.State{}, false, fmt.Errorf("load rotation state: %w", err)
	}
	if !found {
		return nil, rotation.State{}, false, nil
	}
	existing, err := persist.Load(e.snapshots.CurrentPath())
	if err != nil {
		// A missing snapshot routes to full build rather than failing
		// the cycle.
		if errors.Is(err, fs.ErrNotExist) {
			return nil, rotation.State{}, false, nil
		}
		return nil, rotation.State{}, false, fmt.Errorf("load catalog: %w", err)
	}
	return existing, st, true, nil
}

// reverifyShard fetches every product in the due shard and re-extracts the
// ones whose record materially changed. Fetch failures skip the product;
// its row stays as persisted.
func (e *Engine) reverifyShard(ctx context.Context, existing *catalog.Catalog, shardIndex int) ([]catalog.CatalogRow, int, error) {
	shard := rotation.Shard(existing.KnownIDs(), shardIndex)
	var updated []catalog.CatalogRow
	checked := 0
	for _, id := range shard {
		if err := ctx.Err(); err != nil {
			return nil, checked, fmt.Errorf("re-verification interrupted: %w", err)
		}
		rec, raw, ok := e.products.Fetch(ctx, id)
		if !ok {
			continue
		}
		checked++
		if !e.detector.IsUpdated(ctx, id, rec) {
			continue
		}
		e.products.Refresh(ctx, id, raw)
		if row := catalog.Extract(rec); row != nil {
			updated = append(updated, *row)
			e.logger.Debug("product updated", zap.String("product_id", id))
		}
	}
	e.logger.Info("shard re-verified",
		zap.Int("shard", shardIndex),
		zap.Int("shard_size", len(shard)),
		zap.Int("checked", checked),
		zap.Int("updated", len(updated)),
	)
	return updated, checked, nil
}

// discover runs the budgeted discovery crawl for an update cycle. Seeds come
// from incomplete categories first so truncated aisles get first claim on
// the budget; caps are derived from the current size distribution. The
// traversal re-walks already-known products (cache hits make that cheap)
// because related-product edges hang off them; rows for known ids are
// filtered out afterwards so only genuinely new products remain.
func (e *Engine) discover(ctx context.Context, existing *catalog.Catalog, incompleteCategories []string) (*crawler.Result, error) {
	seedsByCategory := existing.SeedsByCategory()
	seeds := make([]string, 0, len(seedsByCategory))
	used := make(map[string]struct{}, len(seedsByCategory))
	for _, categoryID := range incompleteCategories {
		if seed, ok := seedsByCategory[categoryID]; ok {
			seeds = append(seeds, seed)
			used[categoryID] = struct{}{}
		}
	}
	rest := make([]string, 0, len(seedsByCategory))
	for categoryID := range seedsByCategory {
		if _, ok := used[categoryID]; !ok {
			rest = append(rest, categoryID)
		}
	}
	sort.Strings(rest)
	for _, categoryID := range rest {
		seeds = append(seeds, seedsByCategory[categoryID])
	}

	limits := limiter.ComputeLimits(existing.CategorySizes())
	tracker := limiter.NewTracker(func(categoryID string) int {
		if l, ok := limits[categoryID]; ok {
			return l
		}
		return e.cfg.Crawler.BaseCategoryLimit
	}, e.cfg.Crawler.MaxCategorySize)

	res, err := e.crawler.Crawl(ctx, seeds, nil, e.cfg.Crawler.UpdateBudget, tracker)
	if err != nil {
		return nil, fmt.Errorf("discovery crawl: %w", err)
	}

	known := existing.IDSet()
	fresh := res.Rows[:0]
	for _, row := range res.Rows {
		if _, ok := known[row.ID]; ok {
			continue
		}
		fresh = append(fresh, row)
	}
	res.Rows = fresh
	return res, nil
}

// carryIncomplete unions the carried-over and newly observed incomplete
// categories, then clears every category that gained enough new rows this
// run. Returns a sorted list.
func carryIncomplete(carried, observed []string, fresh []catalog.CatalogRow) []string {
	gained := make(map[string]int)
	for _, row := range fresh {
		gained[row.CategoryID]++
	}
	set := make(map[string]struct{}, len(carried)+len(observed))
	for _, id := range carried {
		set[id] = struct{}{}
	}
	for _, id := range observed {
		set[id] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		if gained[id] >= clearThreshold {
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// cycleOutcome carries everything finishCycle needs to persist and report.
type cycleOutcome struct {
	runID      string
	mode       string
	startedAt  time.Time
	merged     *catalog.Catalog
	checked    int
	updated    int
	newRows    int
	incomplete []string
	shardIndex int
	nextShard  int
}

// finishCycle persists the snapshot and rotation state (both fatal on
// failure), then writes the report, uploads, and publishes (all logged,
// never fatal).
func (e *Engine) finishCycle(ctx context.Context, out cycleOutcome) (*report.Report, error) {
	finish := e.clock.Now()

	snapshot, err := e.snapshots.Save(out.merged, finish)
	if err != nil {
		return nil, fmt.Errorf("persist catalog: %w", err)
	}
	st := rotation.State{
		Timestamp:             finish,
		ShardIndex:            out.nextShard,
		IncompleteCategoryIDs: out.incomplete,
	}
	if err := rotation.Save(e.cfg.Rotation.StatePath, st); err != nil {
		return nil, fmt.Errorf("persist rotation state: %w", err)
	}

	sizes := out.merged.CategorySizes()
	metrics.SetCatalogSize(out.merged.Len())
	metrics.SetIncompleteCategories(len(out.incomplete))
	metrics.AddRows("new", out.newRows)
	metrics.AddRows("updated", out.updated)
	metrics.ObserveCycle(out.mode, finish.Sub(out.startedAt))

	rep := &report.Report{
		RunID:                out.runID,
		Mode:                 out.mode,
		StartedAt:            out.startedAt,
		FinishedAt:           finish,
		ShardIndex:           out.shardIndex,
		TotalRows:            out.merged.Len(),
		Categories:           len(sizes),
		CheckedRows:          out.checked,
		UpdatedRows:          out.updated,
		NewRows:              out.newRows,
		TopCategories:        report.TopCategories(sizes, out.merged.CategoryNames(), 5),
		IncompleteCategories: out.incomplete,
		SnapshotPath:         snapshot,
	}

	reportPath, err := report.Write(filepath.Join(e.cfg.Catalog.Dir, "reports"), rep)
	if err != nil {
		e.logger.Warn("report write failed", zap.Error(err))
		reportPath = ""
	}
	if e.uploader != nil {
		rep.Uploaded = e.uploader.PushCycle(ctx, out.runID, snapshot, reportPath)
	}
	if e.publisher != nil {
		if _, err := e.publisher.Publish(ctx, e.cfg.Events.Topic, rep); err != nil {
			e.logger.Warn("cycle event publish failed", zap.Error(err))
		}
	}

	e.setProgress(func(p *Progress) {
		p.Phase = "done"
		p.Rows = out.merged.Len()
		p.CheckedRows = out.checked
		p.UpdatedRows = out.updated
		p.NewRows = out.newRows
	})
	e.logger.Info("cycle finished",
		zap.String("run_id", out.runID),
		zap.String("mode", out.mode),
		zap.Int("rows", out.merged.Len()),
		zap.Int("new", out.newRows),
		zap.Int("updated", out.updated),
		zap.Int("incomplete_categories", len(out.incomplete)),
		zap.Duration("duration", finish.Sub(out.startedAt)),
	)
	return rep, nil
}
