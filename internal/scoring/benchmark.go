// internal/scoring/benchmark.go
package scoring

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"diagnosis-pipeline/internal/common/database"
	"diagnosis-pipeline/internal/common/errors"
	"diagnosis-pipeline/internal/common/logger"
	"diagnosis-pipeline/internal/models"

	"github.com/redis/go-redis/v9"
)

// ==========================
// Benchmark comparator
// ==========================

// BenchmarkStore resolves the aggregate reference scores for a given
// industry and organization-size tier.
type BenchmarkStore interface {
	Lookup(ctx context.Context, industry, sizeTier string) (models.Benchmark, error)
}

// Comparator maps normalized category scores against benchmark tables to
// produce percentiles, rankings, a market-position classification, and a
// gap analysis. Percentiles are deterministic piecewise-linear lookups
// against the declared reference points, never sampled.
type Comparator struct {
	store BenchmarkStore
	log   logger.Logger
}

func NewComparator(store BenchmarkStore, log logger.Logger) *Comparator {
	return &Comparator{store: store, log: log}
}

// Compare resolves the benchmark for the company's industry and size tier
// and positions the category scores against it.
func (c *Comparator) Compare(ctx context.Context, scores []models.CategoryScore, industry, sizeTier string) (*models.BenchmarkComparison, error) {
	bench, err := c.store.Lookup(ctx, industry, sizeTier)
	if err != nil {
		return nil, errors.NewBenchmarkLookupFailedError(err)
	}

	companyTotal := averageNormalized(scores)

	rankings := []models.DimensionRanking{
		dimensionRanking("industry", companyTotal, bench.IndustryAverage, bench),
		dimensionRanking("size", companyTotal, bench.SizeAverage, bench),
		dimensionRanking("global", companyTotal, (bench.IndustryAverage+bench.SizeAverage)/2, bench),
	}

	var rankingSum float64
	for _, r := range rankings {
		rankingSum += r.Ranking
	}
	overallRanking := rankingSum / float64(len(rankings))

	gap := gapAnalysis(scores, companyTotal, bench.IndustryAverage)

	return &models.BenchmarkComparison{
		Rankings:            rankings,
		OverallRanking:      overallRanking,
		MarketPosition:      marketPositionFor(overallRanking),
		GapAnalysis:         gap,
		CompetitivePosition: competitivePositionFor(gap.OverallGapPercentage),
	}, nil
}

// dimensionRanking converts the company total into a percentile on a
// curve anchored at the dimension's average (50th), the top-percentile
// reference (90th), and the global best (99th). Ranking 1 is best.
func dimensionRanking(dimension string, companyTotal, dimensionAverage float64, bench models.Benchmark) models.DimensionRanking {
	anchored := models.Benchmark{
		IndustryAverage: dimensionAverage,
		TopPercentile:   bench.TopPercentile,
		GlobalBest:      bench.GlobalBest,
	}
	percentile := percentileFor(companyTotal, anchored)
	return models.DimensionRanking{
		Dimension:  dimension,
		Benchmark:  dimensionAverage,
		Percentile: percentile,
		Ranking:    100 - percentile,
	}
}

// percentileFor interpolates linearly through the reference points:
// 0 -> 0th, average -> 50th, topPercentile -> 90th, globalBest -> 99th,
// 100 -> 100th. Non-monotonic reference data degrades to the nearest
// anchor instead of extrapolating.
func percentileFor(score float64, b models.Benchmark) float64 {
	type anchor struct{ score, percentile float64 }
	anchors := []anchor{{0, 0}}
	last := 0.0
	appendAnchor := func(s, p float64) {
		if s > last && s < 100 {
			anchors = append(anchors, anchor{s, p})
			last = s
		}
	}
	appendAnchor(b.IndustryAverage, 50)
	appendAnchor(b.TopPercentile, 90)
	appendAnchor(b.GlobalBest, 99)
	anchors = append(anchors, anchor{100, 100})

	score = clamp(score, 0, 100)
	for i := 1; i < len(anchors); i++ {
		if score <= anchors[i].score {
			lo, hi := anchors[i-1], anchors[i]
			span := hi.score - lo.score
			if span == 0 {
				return hi.percentile
			}
			return lo.percentile + (score-lo.score)/span*(hi.percentile-lo.percentile)
		}
	}
	return 100
}

func marketPositionFor(ranking float64) models.MarketPosition {
	switch {
	case ranking <= 25:
		return models.PositionLeader
	case ranking <= 50:
		return models.PositionChallenger
	case ranking <= 75:
		return models.PositionFollower
	default:
		return models.PositionNiche
	}
}

// competitivePositionFor buckets the overall gap percentage. Negative
// percentages mean the company is ahead of the benchmark.
func competitivePositionFor(gapPercentage float64) string {
	switch {
	case gapPercentage < -10:
		return "leading"
	case gapPercentage < 5:
		return "above average"
	case gapPercentage < 15:
		return "average"
	case gapPercentage < 30:
		return "needs improvement"
	default:
		return "urgent improvement needed"
	}
}

// gapAnalysis measures how far the company sits below the benchmark and
// collects priority areas: categories whose own gap exceeds 20 points,
// deduplicated by name.
func gapAnalysis(scores []models.CategoryScore, companyTotal, benchmarkTotal float64) models.GapAnalysis {
	gap := benchmarkTotal - companyTotal

	var gapPercentage float64
	if benchmarkTotal > 0 {
		gapPercentage = gap / benchmarkTotal * 100
	}

	priority := []string{}
	seen := make(map[string]bool)
	for _, cs := range scores {
		benchmark := scoredCategoryBenchmark(cs)
		if benchmark-cs.NormalizedScore > 20 && !seen[cs.CategoryName] {
			priority = append(priority, cs.CategoryName)
			seen[cs.CategoryName] = true
		}
	}

	return models.GapAnalysis{
		BenchmarkTotal:       benchmarkTotal,
		CompanyTotal:         companyTotal,
		OverallGap:           gap,
		OverallGapPercentage: gapPercentage,
		PriorityAreas:        priority,
	}
}

func averageNormalized(scores []models.CategoryScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, cs := range scores {
		sum += cs.NormalizedScore
	}
	return sum / float64(len(scores))
}

// categoryBenchmark averages a category's subcategory benchmarks into one
// reference point set.
func categoryBenchmark(cat *models.CompetencyCategory) models.Benchmark {
	if len(cat.SubCategories) == 0 {
		return models.Benchmark{}
	}
	var b models.Benchmark
	for _, sub := range cat.SubCategories {
		b.IndustryAverage += sub.Benchmark.IndustryAverage
		b.SizeAverage += sub.Benchmark.SizeAverage
		b.TopPercentile += sub.Benchmark.TopPercentile
		b.GlobalBest += sub.Benchmark.GlobalBest
	}
	n := float64(len(cat.SubCategories))
	b.IndustryAverage /= n
	b.SizeAverage /= n
	b.TopPercentile /= n
	b.GlobalBest /= n
	return b
}

// scoredCategoryBenchmark derives the same averaged reference from an
// already scored category, using the benchmarks carried on its
// subcategory scores.
func scoredCategoryBenchmark(cs models.CategoryScore) float64 {
	if len(cs.SubCategories) == 0 {
		return 0
	}
	var sum float64
	for _, sub := range cs.SubCategories {
		sum += sub.Benchmark
	}
	return sum / float64(len(cs.SubCategories))
}

// ==========================
// Benchmark store
// ==========================

// defaultBenchmarkKey identifies the global defaults row used when no
// benchmark exists for an industry/size pair.
const defaultBenchmarkKey = "global"

// SQLBenchmarkStore reads benchmark rows from PostgreSQL with a Redis
// cache-aside in front. Cache failures are logged and ignored so the
// store degrades to the database rather than failing the lookup.
type SQLBenchmarkStore struct {
	db    *database.PostgresClient
	cache *database.RedisClient
	ttl   time.Duration
	log   logger.Logger
}

func NewSQLBenchmarkStore(db *database.PostgresClient, cache *database.RedisClient, ttl time.Duration, log logger.Logger) *SQLBenchmarkStore {
	return &SQLBenchmarkStore{db: db, cache: cache, ttl: ttl, log: log}
}

func (s *SQLBenchmarkStore) cacheKey(industry, sizeTier string) string {
	return fmt.Sprintf("benchmark:%s:%s", industry, sizeTier)
}

func (s *SQLBenchmarkStore) Lookup(ctx context.Context, industry, sizeTier string) (models.Benchmark, error) {
	key := s.cacheKey(industry, sizeTier)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err == nil {
			var b models.Benchmark
			if jsonErr := json.Unmarshal([]byte(cached), &b); jsonErr == nil {
				return b, nil
			}
		} else if err != redis.Nil {
			s.log.Warn("benchmark cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	b, err := s.queryRow(ctx, industry, sizeTier)
	if err == sql.ErrNoRows {
		// No row for this industry/size pair: fall back to the global
		// defaults row.
		s.log.Warn("no benchmark row, using global defaults", map[string]interface{}{
			"industry": industry,
			"sizeTier": sizeTier,
		})
		b, err = s.queryRow(ctx, defaultBenchmarkKey, defaultBenchmarkKey)
		if err == sql.ErrNoRows {
			return models.Benchmark{}, fmt.Errorf("no benchmark for industry=%s size=%s and no default row", industry, sizeTier)
		}
	}
	if err != nil {
		return models.Benchmark{}, fmt.Errorf("benchmark query failed: %w", err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(b); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
				s.log.Warn("benchmark cache write failed", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
			}
		}
	}

	return b, nil
}

func (s *SQLBenchmarkStore) queryRow(ctx context.Context, industry, sizeTier string) (models.Benchmark, error) {
	var b models.Benchmark
	row := s.db.QueryRow(ctx,
		`SELECT industry_average, size_average, top_percentile, global_best
		 FROM benchmarks WHERE industry = $1 AND size_tier = $2`,
		industry, sizeTier)
	if err := row.Scan(&b.IndustryAverage, &b.SizeAverage, &b.TopPercentile, &b.GlobalBest); err != nil {
		return models.Benchmark{}, err
	}
	return b, nil
}

// StaticBenchmarkStore serves one fixed benchmark regardless of industry
// or size tier. Used when no database is configured.
type StaticBenchmarkStore struct {
	Benchmark models.Benchmark
}

func (s *StaticBenchmarkStore) Lookup(_ context.Context, _, _ string) (models.Benchmark, error) {
	return s.Benchmark, nil
}
