// internal/models/assessment.go
package models

// QuestionResponse is one answered survey question. Immutable once submitted.
type QuestionResponse struct {
	QuestionID string  `json:"questionId"`
	Score      int     `json:"score"` // 1..5
	CategoryID string  `json:"categoryId"`
	Weight     float64 `json:"weight"`               // defaults to 1.0
	Confidence int     `json:"confidence,omitempty"` // 1..5, optional
}

// EffectiveWeight returns the response weight, defaulting to 1.0 when unset.
func (r QuestionResponse) EffectiveWeight() float64 {
	if r.Weight <= 0 {
		return 1.0
	}
	return r.Weight
}

type CompanyInfo struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contactEmail"`
	Industry     string `json:"industry"`
	SizeTier     string `json:"sizeTier"` // "small", "medium", "large", "enterprise"
}

// DiagnosisSubmission is the pipeline's stage-1 input.
type DiagnosisSubmission struct {
	CompanyInfo CompanyInfo        `json:"companyInfo"`
	Responses   []QuestionResponse `json:"responses"`
}
