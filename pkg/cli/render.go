package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/fatih/color"

	"github.com/m-mizutani/dorameter/pkg/domain/model"
)

var levelColors = map[model.Level]*color.Color{
	model.LevelElite:   color.New(color.FgGreen, color.Bold),
	model.LevelHigh:    color.New(color.FgCyan),
	model.LevelMedium:  color.New(color.FgYellow),
	model.LevelLow:     color.New(color.FgRed),
	model.LevelUnknown: color.New(color.FgHiBlack),
}

var (
	headerColor = color.New(color.Bold, color.Underline)
	noteColor   = color.New(color.Faint)
)

func levelString(l model.Level) string {
	if c, ok := levelColors[l]; ok {
		return c.Sprint(string(l))
	}
	return string(l)
}

func optHours(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2fh", *v)
}

// renderText writes a human readable summary of the result
func renderText(w io.Writer, r *model.DORAResult) error {
	p := &printer{w: w}

	mp := r.MeasurementPeriod
	p.println(headerColor.Sprint("DORA metrics"))
	p.printf("Period: %s to %s (%d days)\n\n",
		mp.StartDate.Format("2006-01-02"), mp.EndDate.Format("2006-01-02"), mp.Days)

	df := r.DeploymentFrequency
	p.printf("Deployment frequency  [%s]\n", levelString(df.Level))
	p.printf("  total %d, %.2f/day, %.2f/week, %.2f/month\n", df.TotalDeployments, df.PerDay, df.PerWeek, df.PerMonth)

	lt := r.LeadTime
	p.printf("Lead time for changes [%s]\n", levelString(lt.Level))
	p.printf("  median %s, p95 %s, average %s\n", optHours(lt.MedianHours), optHours(lt.P95Hours), optHours(lt.AverageHours))
	p.printf("  samples %d (mapped %d, fallback %d, over max %d)\n", lt.SampleSize, lt.MappedCount, lt.FallbackCount, lt.ExcludedOverMax)

	cfr := r.ChangeFailureRate
	p.printf("Change failure rate   [%s]\n", levelString(cfr.Level))
	if cfr.RatePercent != nil && cfr.FailedDeployments != nil {
		p.printf("  %.2f%% (%d of %d deployments, %d incidents, window %.0fh)\n",
			*cfr.RatePercent, *cfr.FailedDeployments, cfr.TotalDeployments, cfr.IncidentsCount, cfr.CorrelationWindowHours)
	}
	if cfr.Note != "" {
		p.printf("  %s\n", noteColor.Sprint(cfr.Note))
	}

	mttr := r.MTTR
	p.printf("Time to restore       [%s]\n", levelString(mttr.Level))
	p.printf("  median %s, p95 %s, average %s, samples %d\n",
		optHours(mttr.MedianHours), optHours(mttr.P95Hours), optHours(mttr.AverageHours), mttr.SampleSize)
	if mttr.Note != "" {
		p.printf("  %s\n", noteColor.Sprint(mttr.Note))
	}

	p.printf("\nOverall: %s\n", headerColor.Sprint(r.DORALevel.Level))
	p.printf("  %s\n", r.DORALevel.Description)

	if len(r.Skipped) > 0 {
		p.println("\nSkipped records:")
		for _, reason := range slices.Sorted(maps.Keys(r.Skipped)) {
			p.printf("  %s: %d\n", reason, r.Skipped[reason])
		}
	}

	return p.err
}

// printer keeps the first write error so rendering code stays linear
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) println(s string) {
	p.printf("%s\n", s)
}
