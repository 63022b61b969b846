package model

// ReportPeriod is the symbolic window token accepted by the breakdown and
// revenue-vs-expense reports.
type ReportPeriod string

const (
	ReportPeriodWeek    ReportPeriod = "week"
	ReportPeriodMonth   ReportPeriod = "month"
	ReportPeriodQuarter ReportPeriod = "quarter"
	ReportPeriodYear    ReportPeriod = "year"
)

func (p ReportPeriod) Valid() bool {
	switch p {
	case ReportPeriodWeek, ReportPeriodMonth, ReportPeriodQuarter, ReportPeriodYear:
		return true
	}
	return false
}

// Dataset is one named series of a chart.
type Dataset struct {
	Label string  `json:"label"`
	Data  []int64 `json:"data"`
}

// ChartData is the chart-ready shape returned by the reporting endpoints:
// labels plus one or more parallel datasets of equal length.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// FinancialSummary is the flat numeric view over a date range. Monetary
// fields are minor-currency units; ProfitMargin is a percentage.
type FinancialSummary struct {
	TotalRevenue     int64   `json:"total_revenue"`
	TotalExpenses    int64   `json:"total_expenses"`
	NetProfit        int64   `json:"net_profit"`
	ProfitMargin     float64 `json:"profit_margin"`
	PendingExpenses  int64   `json:"pending_expenses"`
	TransactionCount int     `json:"transaction_count"`
}

// CategoryTotal preserves insertion order of first occurrence per category.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    int64  `json:"total"`
}
