package broker

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fayedaihall/tesseracts-world/internal/domain"
)

// Analytics is a point-in-time snapshot of brokering activity.
type Analytics struct {
	TotalJobs         int              `json:"total_jobs"`
	StatusBreakdown   map[string]int   `json:"status_breakdown"`
	ProviderBreakdown map[string]int   `json:"provider_breakdown"`
	ServiceBreakdown  map[string]int   `json:"service_breakdown"`
	AverageCostUSD    *decimal.Decimal `json:"average_cost_usd,omitempty"`
	ActiveProviders   int              `json:"active_providers"`
	ProviderHealth    map[string]bool  `json:"provider_health"`
	TotalQuotesCached int              `json:"total_quotes_cached"`
}

// Analytics aggregates the registry, quote cache, and provider health into a
// single report. Average cost only covers completed jobs.
func (g *Gateway) Analytics(ctx context.Context) *Analytics {
	jobs := g.jobs.Snapshot()

	report := &Analytics{
		TotalJobs:         len(jobs),
		StatusBreakdown:   make(map[string]int),
		ProviderBreakdown: make(map[string]int),
		ServiceBreakdown:  make(map[string]int),
		ActiveProviders:   len(g.providers),
		ProviderHealth:    g.ProviderHealth(ctx),
		TotalQuotesCached: g.quotes.Len(),
	}

	completed := 0
	totalCost := decimal.Zero
	for _, job := range jobs {
		report.StatusBreakdown[string(job.Status)]++
		report.ProviderBreakdown[job.ProviderID]++
		report.ServiceBreakdown[string(job.ServiceType)]++
		if job.Status == domain.JobStatusCompleted {
			completed++
			totalCost = totalCost.Add(job.EstimatedCost)
		}
	}
	if completed > 0 {
		avg := totalCost.DivRound(decimal.NewFromInt(int64(completed)), 2)
		report.AverageCostUSD = &avg
	}
	return report
}
