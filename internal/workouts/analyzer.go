package workouts

import (
	"context"
	"math"
	"time"

	"github.com/adityapw/fittrack/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

type workoutsLister interface {
	List(ctx context.Context) ([]Workout, error)
}

// Analyzer computes aggregate stats over the workout log.
type Analyzer struct {
	repo workoutsLister
	now  func() time.Time
}

func NewAnalyzer(repo workoutsLister) *Analyzer {
	return &Analyzer{
		repo: repo,
		now:  time.Now,
	}
}

func (a *Analyzer) Stats(ctx context.Context) (_ *Stats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.analyzer.stats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	workouts, err := a.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := CalculateStats(workouts, a.now())
	span.SetAttributes(attribute.Int("total_workouts", stats.TotalWorkout))
	return stats, nil
}

// CalculateStats folds a workout list into aggregate numbers. The
// this-week window covers the last 7 days inclusive of today; dates are
// compared lexicographically, which is safe for the YYYY-MM-DD layout.
func CalculateStats(workouts []Workout, now time.Time) *Stats {
	stats := &Stats{
		TotalWorkout: len(workouts),
	}

	weekAgoStr := now.AddDate(0, 0, -7).Format(DateLayout)
	for _, w := range workouts {
		stats.TotalDuration += w.Duration
		stats.TotalCalories += w.Calories
		if w.Date >= weekAgoStr {
			stats.ThisWeek++
		}
	}

	if stats.TotalWorkout > 0 {
		stats.AvgDuration = int(math.Round(
			float64(stats.TotalDuration) / float64(stats.TotalWorkout),
		))
	}

	return stats
}
