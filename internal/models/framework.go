// internal/models/framework.go
package models

// Benchmark holds the reference scores a subcategory is compared against.
type Benchmark struct {
	IndustryAverage float64 `json:"industryAverage"`
	SizeAverage     float64 `json:"sizeAverage"`
	TopPercentile   float64 `json:"topPercentile"`
	GlobalBest      float64 `json:"globalBest"`
}

type SubCategory struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	QuestionIDs []string  `json:"questionIds"`
	Benchmark   Benchmark `json:"benchmark"`
}

// CompetencyCategory is static reference data, loaded once per process
// lifetime and never mutated at runtime.
type CompetencyCategory struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Weight        float64       `json:"weight"` // must be > 0
	SubCategories []SubCategory `json:"subcategories"`
}

// AssessmentFramework is the full set of competency categories for one
// diagnosis questionnaire.
type AssessmentFramework struct {
	Version    string               `json:"version"`
	Categories []CompetencyCategory `json:"categories"`
}

// QuestionCount returns the number of distinct questions the framework expects.
func (f *AssessmentFramework) QuestionCount() int {
	n := 0
	for _, cat := range f.Categories {
		for _, sub := range cat.SubCategories {
			n += len(sub.QuestionIDs)
		}
	}
	return n
}

// Category returns the category with the given ID, or nil.
func (f *AssessmentFramework) Category(id string) *CompetencyCategory {
	for i := range f.Categories {
		if f.Categories[i].ID == id {
			return &f.Categories[i]
		}
	}
	return nil
}
