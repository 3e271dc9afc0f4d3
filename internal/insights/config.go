package insights

// Config holds the thresholds of the insight heuristics. The values are
// tunable defaults, not fitted statistics.
type Config struct {
	OverallTrendThreshold  float64 `koanf:"overall_trend_threshold"`
	OverallHighThreshold   float64 `koanf:"overall_high_threshold"`
	CategoryTrendThreshold float64 `koanf:"category_trend_threshold"`
	CategoryHighThreshold  float64 `koanf:"category_high_threshold"`

	UnusualMultiplier float64 `koanf:"unusual_multiplier"`
	MaxAnomalies      int     `koanf:"max_anomalies"`

	RecurringMinOccurrences   int     `koanf:"recurring_min_occurrences"`
	RecurringMaxCV            float64 `koanf:"recurring_max_cv"`
	RecurringMinIntervalDays  float64 `koanf:"recurring_min_interval_days"`
	RecurringMaxIntervalDays  float64 `koanf:"recurring_max_interval_days"`
	MinSubscriptionsForReview int     `koanf:"min_subscriptions_for_review"`

	MaxRecommendations     int     `koanf:"max_recommendations"`
	TopCategoryIncomeShare float64 `koanf:"top_category_income_share"`
	TopCategoryReduction   float64 `koanf:"top_category_reduction"`
	EmergencyFundMonths    float64 `koanf:"emergency_fund_months"`
	InvestingSavingsRate   float64 `koanf:"investing_savings_rate"`

	IncomeKeywords   []string `koanf:"income_keywords"`
	TransferKeywords []string `koanf:"transfer_keywords"`

	ForecastMonths int `koanf:"forecast_months"`
	SeriesMonths   int `koanf:"series_months"`
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		OverallTrendThreshold:  10,
		OverallHighThreshold:   25,
		CategoryTrendThreshold: 25,
		CategoryHighThreshold:  50,

		UnusualMultiplier: 3,
		MaxAnomalies:      10,

		RecurringMinOccurrences:   3,
		RecurringMaxCV:            10,
		RecurringMinIntervalDays:  25,
		RecurringMaxIntervalDays:  35,
		MinSubscriptionsForReview: 3,

		MaxRecommendations:     5,
		TopCategoryIncomeShare: 20,
		TopCategoryReduction:   15,
		EmergencyFundMonths:    6,
		InvestingSavingsRate:   20,

		IncomeKeywords: []string{"deposit", "payroll"},

		ForecastMonths: 3,
		SeriesMonths:   6,
	}
}
