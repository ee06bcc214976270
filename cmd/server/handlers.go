package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/foldscape/foldscape/internal/catalog"
	"github.com/foldscape/foldscape/internal/errors"
	"github.com/foldscape/foldscape/internal/types"
	"github.com/foldscape/foldscape/internal/validate"
	"github.com/foldscape/foldscape/internal/velocity"
)

func (app *application) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"repos":        app.store.Len(),
		"collected_at": app.store.Metadata().CollectedAt,
	})
}

// handleRepos is the main table query: filter, sort, and summarize in
// one response so the dashboard renders from a single round trip.
func (app *application) handleRepos(c *gin.Context) {
	start := time.Now()

	var filter catalog.FilterSpec
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(errors.NewValidationError("invalid query parameters", map[string]string{"error": err.Error()}))
		return
	}

	def := catalog.DefaultSort()
	sortSpec := catalog.SortSpec{
		Field: catalog.SortField(c.DefaultQuery("sort", string(def.Field))),
		Dir:   catalog.Direction(c.DefaultQuery("dir", string(def.Dir))),
	}
	switch sortSpec.Field {
	case catalog.SortByName, catalog.SortByStars, catalog.SortByUpdated:
	default:
		c.Error(errors.NewValidationError("unknown sort field", map[string]string{"sort": string(sortSpec.Field)}))
		return
	}
	switch sortSpec.Dir {
	case catalog.Ascending, catalog.Descending:
	default:
		c.Error(errors.NewValidationError("unknown sort direction", map[string]string{"dir": string(sortSpec.Dir)}))
		return
	}

	records := app.store.Records()
	result := catalog.Query(records, filter, sortSpec)
	stats := catalog.CountStats(result, len(records))

	app.logger.QueryLogger(filter.Search, filter.Category, filter.Language,
		string(sortSpec.Field), stats.Shown, stats.Total, time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"repos": toViews(result),
		"stats": stats,
	})
}

func (app *application) handleStats(c *gin.Context) {
	records := app.store.Records()
	c.JSON(http.StatusOK, catalog.CountStats(records, len(records)))
}

func (app *application) handleTrending(c *gin.Context) {
	limit, ok := limitParam(c, catalog.DefaultTrendingLimit)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"repos": toViews(catalog.TrendingSet(app.store.Records(), limit)),
	})
}

func (app *application) handleTop(c *gin.Context) {
	limit, ok := limitParam(c, catalog.DefaultTopLimit)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"repos": toViews(catalog.TopByStars(app.store.Records(), limit)),
	})
}

func (app *application) handleCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": catalog.CategoryHistogram(app.store.Records()),
	})
}

func (app *application) handleLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": catalog.Languages(app.store.Records()),
	})
}

func (app *application) handleMetadata(c *gin.Context) {
	dates, err := app.history.SnapshotDates()
	if err != nil {
		c.Error(errors.NewInternalError("failed to list snapshots", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"metadata":       app.store.Metadata(),
		"snapshot_dates": dates,
	})
}

// handleRefresh runs the full collection pipeline: fetch fresh metadata
// from GitHub, re-categorize, record a star snapshot, recompute 7-day
// velocity against history, and atomically swap the dataset. Per-repo
// fetch failures keep the stale record; only a total collection failure
// aborts the refresh.
func (app *application) handleRefresh(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	updated, err := app.collector.Refresh(ctx, app.store.Records())
	if err != nil {
		app.logger.RefreshLogger(app.store.Len(), 0, 0, time.Since(start), false)
		c.Error(err)
		return
	}

	classified, classifyResult := app.categorizer.Apply(updated)

	now := time.Now().UTC()
	if err := app.history.RecordSnapshot(now, classified); err != nil {
		c.Error(errors.NewInternalError("failed to record star snapshot", err))
		return
	}
	app.metrics.IncrementSnapshotWrite()

	var velocityResult velocity.Result
	historical, ok, err := app.history.StarsAsOf(now, 7)
	if err != nil {
		c.Error(errors.NewInternalError("failed to load historical stars", err))
		return
	}
	if ok {
		classified, velocityResult = velocity.Compute(classified, historical, app.cfg.TrendingThreshold)
	}

	meta := types.DatasetMetadata{
		CollectedAt: now.Format(time.RFC3339),
		RepoCount:   len(classified),
	}
	if err := app.store.Replace(classified, meta); err != nil {
		c.Error(errors.NewInternalError("failed to persist dataset", err))
		return
	}
	app.metrics.IncrementDatasetReload()
	app.cache.Clear()

	app.logger.RefreshLogger(len(classified), classifyResult.Categorized,
		velocityResult.Trending, time.Since(start), true)

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"repos":         len(classified),
		"categorized":   classifyResult.Categorized,
		"uncategorized": classifyResult.Uncategorized,
		"trending":      velocityResult.Trending,
		"collected_at":  meta.CollectedAt,
		"duration_ms":   time.Since(start).Milliseconds(),
	})
}

func (app *application) handleValidate(c *gin.Context) {
	records := app.store.Records()
	issues := validate.Collection(records)

	issueStrings := make([]string, 0, len(issues))
	for _, issue := range issues {
		issueStrings = append(issueStrings, issue.String())
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":    len(issues) == 0,
		"issues":   issueStrings,
		"coverage": validate.Summarize(records),
	})
}

func (app *application) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, app.metrics.GetStats())
}

func (app *application) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, app.cache.Stats())
}

func (app *application) handleRateLimitStats(c *gin.Context) {
	c.JSON(http.StatusOK, app.limiter.GetStats())
}

func toViews(records []types.Record) []catalog.View {
	views := make([]catalog.View, len(records))
	for i, r := range records {
		views[i] = catalog.Normalize(r)
	}
	return views
}

// limitParam parses an optional positive limit, writing a 400 and
// returning ok=false on garbage input.
func limitParam(c *gin.Context, defaultLimit int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.Error(errors.NewValidationError("limit must be a positive integer", map[string]string{"limit": raw}))
		return 0, false
	}
	return limit, true
}
