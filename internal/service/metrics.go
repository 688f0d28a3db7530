package service

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	MeasureCustomersRecalculated = stats.Int64(
		"segmentation/customers_recalculated",
		"Number of customers whose snapshot was recalculated",
		stats.UnitDimensionless,
	)
	MeasureRecalculationLatency = stats.Float64(
		"segmentation/organization_recalculation_latency",
		"Duration of a bulk recalculation run",
		stats.UnitMilliseconds,
	)
	MeasureSegmentsAssigned = stats.Int64(
		"segmentation/segments_assigned",
		"Number of AI segments written by an assignment pass",
		stats.UnitDimensionless,
	)

	// KeyOutcome is "success" or "failure"
	KeyOutcome = tag.MustNewKey("outcome")
)

// SegmentationViews are registered with the metrics exporters at startup
var SegmentationViews = []*view.View{
	{
		Name:        "segmentation/customers_recalculated",
		Description: "Customers recalculated by outcome",
		Measure:     MeasureCustomersRecalculated,
		TagKeys:     []tag.Key{KeyOutcome},
		Aggregation: view.Count(),
	},
	{
		Name:        "segmentation/organization_recalculation_latency",
		Description: "Distribution of bulk recalculation durations",
		Measure:     MeasureRecalculationLatency,
		Aggregation: view.Distribution(100, 500, 1000, 5000, 15000, 60000, 300000, 900000),
	},
	{
		Name:        "segmentation/segments_assigned",
		Description: "AI segments written",
		Measure:     MeasureSegmentsAssigned,
		Aggregation: view.Sum(),
	},
}

func recordCustomerOutcome(ctx context.Context, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeyOutcome, outcome)}, MeasureCustomersRecalculated.M(1))
}
