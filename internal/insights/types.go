package insights

import "time"

// Insight types.
const (
	InsightMonthlyTrend  = "monthly_trend"
	InsightCategoryTrend = "category_trend"
	InsightGoalProgress  = "goal_progress"
	InsightGoalAtRisk    = "goal_at_risk"
	InsightGoalCompleted = "goal_completed"
)

// Anomaly types.
const (
	AnomalyDuplicate     = "duplicate"
	AnomalyUnusualAmount = "unusual_amount"
)

// Severity and confidence levels.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// Insight is a derived observation about spending or goals.
type Insight struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
	Category    string   `json:"category,omitempty"`
	GoalID      string   `json:"goalId,omitempty"`
	Change      *float64 `json:"change,omitempty"` // percent
	Current     *float64 `json:"current,omitempty"`
	Previous    *float64 `json:"previous,omitempty"`
	Progress    *float64 `json:"progress,omitempty"`
}

// MonthlyPoint is one bar of the monthly expense chart.
type MonthlyPoint struct {
	Month    string  `json:"month"` // YYYY-MM
	Expenses float64 `json:"expenses"`
	Income   float64 `json:"income"`
}

// TrendAnalysis is the output of AnalyzeTrends.
type TrendAnalysis struct {
	Insights        []Insight      `json:"insights"`
	MonthlyExpenses []MonthlyPoint `json:"monthlyExpenses"`
}

// ForecastPoint is a projected end-of-month balance.
type ForecastPoint struct {
	Month      int     `json:"month"`
	Date       string  `json:"date"` // YYYY-MM
	Balance    float64 `json:"balance"`
	Confidence string  `json:"confidence"`
}

// GoalProjection estimates when a goal will be reached.
type GoalProjection struct {
	GoalID              string   `json:"goalId"`
	Name                string   `json:"name"`
	TargetAmount        float64  `json:"targetAmount"`
	CurrentAmount       float64  `json:"currentAmount"`
	Remaining           float64  `json:"remaining"`
	Progress            float64  `json:"progress"`
	MonthlyContribution *float64 `json:"monthlyContribution"`
	MonthsNeeded        *int     `json:"monthsNeeded"`
	EstimatedCompletion *string  `json:"estimatedCompletion"`
	Deadline            *string  `json:"deadline,omitempty"`
	OnTrack             *bool    `json:"onTrack"`
	Message             string   `json:"message,omitempty"`
}

// RecurringPayment is a detected monthly charge.
type RecurringPayment struct {
	Name                string   `json:"name"`
	Amount              float64  `json:"amount"`
	Frequency           string   `json:"frequency"`
	AverageIntervalDays float64  `json:"averageIntervalDays"`
	Occurrences         int      `json:"occurrences"`
	LastDate            string   `json:"lastDate"`
	NextExpectedDate    string   `json:"nextExpectedDate"`
	TransactionIDs      []string `json:"transactionIds"`
}

// Predictions groups the forward-looking outputs.
type Predictions struct {
	BalanceForecast   []ForecastPoint    `json:"balanceForecast"`
	GoalProjections   []GoalProjection   `json:"goalProjections"`
	RecurringPayments []RecurringPayment `json:"recurringPayments"`
	AverageMonthlyNet float64            `json:"averageMonthlyNet"`
}

// Anomaly is a suspicious transaction or group of transactions.
type Anomaly struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Severity       string    `json:"severity"`
	Description    string    `json:"description"`
	Amount         float64   `json:"amount"`
	Date           time.Time `json:"date"`
	Category       string    `json:"category,omitempty"`
	TransactionIDs []string  `json:"transactionIds"`
}

// Recommendation is an actionable suggestion.
type Recommendation struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Action      string  `json:"action"`
	Impact      float64 `json:"impact"`
	Confidence  string  `json:"confidence"`
}

// Summary holds the 30-day aggregates shown next to the report.
type Summary struct {
	Income30     float64 `json:"income30"`
	Expenses30   float64 `json:"expenses30"`
	SavingsRate  float64 `json:"savingsRate"`
	TotalBalance float64 `json:"totalBalance"`
}

// Report is the full insights response for one user.
type Report struct {
	TrendInsights   []Insight        `json:"trendInsights"`
	MonthlyExpenses []MonthlyPoint   `json:"monthlyExpenses"`
	Predictions     Predictions      `json:"predictions"`
	Recommendations []Recommendation `json:"recommendations"`
	Anomalies       []Anomaly        `json:"anomalies"`
	GoalInsights    []Insight        `json:"goalInsights"`
	Summary         Summary          `json:"summary"`
	Currency        string           `json:"currency"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

func ptr[T any](v T) *T { return &v }
