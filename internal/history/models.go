package history

import "time"

// RunRecord is one persisted replay run (§6.4's report, flattened for
// the `session list|show` commands).
type RunRecord struct {
	ID                          uint      `gorm:"primaryKey" json:"id"`
	SessionID                   string    `gorm:"index" json:"sessionId"`
	ContractFile                string    `json:"contractFile"`
	ComparisonMode              string    `gorm:"index" json:"comparisonMode"`
	Total                       int       `json:"total"`
	Compatible                  int       `json:"compatible"`
	Incompatible                int       `json:"incompatible"`
	Errors                      int       `json:"errors"`
	CompatibilityScore          float64   `json:"compatibilityScore"`
	EffectiveCompatibilityScore float64   `json:"effectiveCompatibilityScore"`
	ReportJSON                  string    `gorm:"type:text" json:"reportJson"`
	RunAt                       time.Time `gorm:"index" json:"runAt"`
}
