package audit

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/GriffinCanCode/recordflow/internal/monitoring"
	"github.com/GriffinCanCode/recordflow/internal/record"
)

// previewCap bounds how many ids a warning line shows. The underlying
// finding sets stay exact; only the display is truncated.
const previewCap = 10

// Reporter writes the human-readable run report. Summary lines go to
// Out, warnings to Warn (stdout/stderr in the binary, buffers in tests).
type Reporter struct {
	Out  io.Writer
	Warn io.Writer
}

// Report prints the processed count, integrity summary, completeness
// summary, and (when metrics are available) throughput and latency
// statistics.
func (r *Reporter) Report(results []record.Record, expected int, metrics *monitoring.Metrics) {
	fmt.Fprintf(r.Out, "Processed %d records\n", len(results))

	integrity := ValidateBatch(results)
	if integrity.Clean() {
		fmt.Fprintf(r.Warn, "All %d records passed integrity check\n", integrity.Valid)
	} else {
		fmt.Fprintf(r.Warn, "WARNING: %d records failed integrity check: %v\n",
			len(integrity.InvalidIDs), preview(integrity.InvalidIDs))
	}

	completeness := CheckCompleteness(results, expected)
	if len(completeness.Missing) > 0 {
		fmt.Fprintf(r.Warn, "WARNING: %d missing record ids: %v\n",
			len(completeness.Missing), preview(completeness.Missing))
	}
	if len(completeness.Duplicates) > 0 {
		fmt.Fprintf(r.Warn, "WARNING: %d duplicate record ids: %v\n",
			len(completeness.Duplicates), preview(completeness.Duplicates))
	}

	if metrics != nil {
		if snap, err := metrics.Gather(); err == nil {
			fmt.Fprintf(r.Out, "Throughput: produced=%.0f requeued=%.0f collected=%.0f\n",
				snap.Produced, snap.Requeued, snap.Collected)
		}
	}
	r.reportLatency(results)
}

// reportLatency summarizes per-record wall time from producer enqueue to
// terminal collection.
func (r *Reporter) reportLatency(results []record.Record) {
	samples := make([]float64, 0, len(results))
	for _, rec := range results {
		if rec.Latency > 0 {
			samples = append(samples, rec.Latency.Seconds())
		}
	}
	if len(samples) == 0 {
		return
	}
	sort.Float64s(samples)

	mean, stddev := stat.MeanStdDev(samples, nil)
	if len(samples) < 2 {
		stddev = 0
	}
	p50 := stat.Quantile(0.50, stat.Empirical, samples, nil)
	p95 := stat.Quantile(0.95, stat.Empirical, samples, nil)
	p99 := stat.Quantile(0.99, stat.Empirical, samples, nil)

	fmt.Fprintf(r.Out, "Latency: mean=%s stddev=%s p50=%s p95=%s p99=%s\n",
		seconds(mean), seconds(stddev), seconds(p50), seconds(p95), seconds(p99))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second)).Round(time.Microsecond)
}

// preview truncates an id list for display, appending an ellipsis marker
// when entries were cut.
func preview(ids []int) string {
	if len(ids) <= previewCap {
		return fmt.Sprint(ids)
	}
	return fmt.Sprintf("%v (first %d of %d)", ids[:previewCap], previewCap, len(ids))
}
