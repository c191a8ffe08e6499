// internal/models/score.go
package models

// MaturityLevel is an ordinal label derived from a normalized score.
type MaturityLevel string

const (
	MaturityBeginner   MaturityLevel = "Beginner"
	MaturityDeveloping MaturityLevel = "Developing"
	MaturityProficient MaturityLevel = "Proficient"
	MaturityAdvanced   MaturityLevel = "Advanced"
	MaturityExpert     MaturityLevel = "Expert"
)

// MaturityLevelFor maps a normalized score in [0,100] to its maturity band.
func MaturityLevelFor(normalized float64) MaturityLevel {
	switch {
	case normalized < 40:
		return MaturityBeginner
	case normalized < 60:
		return MaturityDeveloping
	case normalized < 75:
		return MaturityProficient
	case normalized < 90:
		return MaturityAdvanced
	default:
		return MaturityExpert
	}
}

type SubCategoryScore struct {
	SubCategoryID string  `json:"subcategoryId"`
	Name          string  `json:"name"`
	Score         float64 `json:"score"` // 0..100
	Benchmark     float64 `json:"benchmark"`
	ResponseCount int     `json:"responseCount"`
}

// CategoryScore is derived per evaluation and never persisted in mutable form.
type CategoryScore struct {
	CategoryID       string             `json:"categoryId"`
	CategoryName     string             `json:"categoryName"`
	RawScore         float64            `json:"rawScore"`
	WeightedScore    float64            `json:"weightedScore"`
	NormalizedScore  float64            `json:"normalizedScore"` // 0..100
	Percentile       float64            `json:"percentile"`      // 0..100
	MaturityLevel    MaturityLevel      `json:"maturityLevel"`
	Incomplete       bool               `json:"incomplete"` // no matching responses
	SubCategories    []SubCategoryScore `json:"subcategoryScores"`
	StrengthAreas    []string           `json:"strengthAreas"`
	ImprovementAreas []string           `json:"improvementAreas"`
	CriticalGaps     []string           `json:"criticalGaps"`
}

type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

type StatisticalAnalysis struct {
	Mean               float64            `json:"mean"`
	Median             float64            `json:"median"`
	Variance           float64            `json:"variance"`
	StandardDeviation  float64            `json:"standardDeviation"`
	Skewness           float64            `json:"skewness"`
	ExcessKurtosis     float64            `json:"excessKurtosis"`
	ConfidenceInterval ConfidenceInterval `json:"confidenceInterval95"`
	CronbachAlpha      float64            `json:"cronbachAlpha"` // 0..1
	SampleSize         int                `json:"sampleSize"`
}

// MarketPosition is a coarse classification derived from averaged rankings.
type MarketPosition string

const (
	PositionLeader     MarketPosition = "Leader"
	PositionChallenger MarketPosition = "Challenger"
	PositionFollower   MarketPosition = "Follower"
	PositionNiche      MarketPosition = "Niche"
)

type DimensionRanking struct {
	Dimension  string  `json:"dimension"` // "industry", "size", "global"
	Benchmark  float64 `json:"benchmark"`
	Percentile float64 `json:"percentile"`
	Ranking    float64 `json:"ranking"` // 1 = best, 100 = worst
}

type GapAnalysis struct {
	BenchmarkTotal       float64  `json:"benchmarkTotal"`
	CompanyTotal         float64  `json:"companyTotal"`
	OverallGap           float64  `json:"overallGap"`
	OverallGapPercentage float64  `json:"overallGapPercentage"`
	PriorityAreas        []string `json:"priorityAreas"`
}

type BenchmarkComparison struct {
	Rankings            []DimensionRanking `json:"rankings"`
	OverallRanking      float64            `json:"overallRanking"`
	MarketPosition      MarketPosition     `json:"marketPosition"`
	GapAnalysis         GapAnalysis        `json:"gapAnalysis"`
	CompetitivePosition string             `json:"competitivePosition"`
}

type QualityMetrics struct {
	Completeness      float64 `json:"completeness"` // answered/expected, 0..1
	AverageConfidence float64 `json:"averageConfidence"`
	Reliability       float64 `json:"reliability"` // Cronbach alpha
}

// ScoreResult is built once per diagnosis submission and is immutable after
// construction; the pipeline's first stage consumes it.
type ScoreResult struct {
	TotalScore          float64             `json:"totalScore"`
	MaxPossibleScore    float64             `json:"maxPossibleScore"`
	PercentageScore     float64             `json:"percentageScore"`
	CategoryScores      []CategoryScore     `json:"categoryScores"`
	StatisticalAnalysis StatisticalAnalysis `json:"statisticalAnalysis"`
	BenchmarkComparison BenchmarkComparison `json:"benchmarkComparison"`
	QualityMetrics      QualityMetrics      `json:"qualityMetrics"`
}
