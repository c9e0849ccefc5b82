package domain

import "time"

// AlertKind classifies liquidity alerts raised by the grade watcher.
type AlertKind string

const (
	AlertGradeChange  AlertKind = "grade_change"
	AlertSizeCollapse AlertKind = "size_collapse"
	AlertBookOneSided AlertKind = "book_one_sided"
)

// Alert is a fired liquidity alert, persisted for audit and delivered via the
// configured notification channels.
type Alert struct {
	ID        string // UUID
	MarketID  string
	Kind      AlertKind
	PrevGrade LiquidityGrade
	NewGrade  LiquidityGrade
	Message   string
	FiredAt   time.Time
}
