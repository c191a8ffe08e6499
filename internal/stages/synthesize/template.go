// internal/stages/synthesize/template.go
package synthesize

// reportTemplate renders the delivered markdown report. The analysis
// section comes from the inference service verbatim; everything else is
// derived from the score result.
const reportTemplate = `# Data Capability Diagnosis Report

**Company:** {{.Company.Name}}
**Generated:** {{.GeneratedAt.Format "2006-01-02"}}

## Executive Summary

Overall capability score: **{{printf "%.1f" .Score.PercentageScore}}%** ({{.Score.TotalScore}} of {{.Score.MaxPossibleScore}} points).
Market position: **{{.Score.BenchmarkComparison.MarketPosition}}**. Competitive standing: {{.Score.BenchmarkComparison.CompetitivePosition}}.

## Category Breakdown

| Category | Score | Maturity |
|----------|-------|----------|
{{- range .Score.CategoryScores}}
| {{.CategoryName}} | {{printf "%.1f" .NormalizedScore}} | {{.MaturityLevel}}{{if .Incomplete}} (incomplete){{end}} |
{{- end}}
{{- range .Score.CategoryScores}}
{{- if .CriticalGaps}}

**{{.CategoryName}}** has critical gaps in: {{join .CriticalGaps ", "}}.
{{- end}}
{{- end}}

## Analysis

{{.AnalysisText}}

## Benchmark Position

Gap to benchmark: {{printf "%.1f" .Score.BenchmarkComparison.GapAnalysis.OverallGap}} points ({{printf "%.1f" .Score.BenchmarkComparison.GapAnalysis.OverallGapPercentage}}%).
{{- if .Score.BenchmarkComparison.GapAnalysis.PriorityAreas}}
Priority areas: {{join .Score.BenchmarkComparison.GapAnalysis.PriorityAreas ", "}}.
{{- end}}

## Assessment Quality

- Responses analyzed: {{.Score.StatisticalAnalysis.SampleSize}}
- Completeness: {{printf "%.0f" (pct .Score.QualityMetrics.Completeness)}}%
- Reliability (Cronbach's alpha): {{printf "%.2f" .Score.StatisticalAnalysis.CronbachAlpha}}
`
