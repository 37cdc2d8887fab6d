package health

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// CheckReport is the serialized result of one checker.
type CheckReport struct {
	Name     string         `json:"name"`
	Status   Status         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration string         `json:"duration"`
	Details  map[string]any `json:"details,omitempty"`
}

// Report is the combined outcome of an Aggregator run.
type Report struct {
	Status    Status        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckReport `json:"checks"`
}

// NewReport combines results, given in the same order as names. The overall
// status is the worst individual status; an empty report is healthy.
func NewReport(names []string, results []Result) Report {
	r := Report{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Checks:    make([]CheckReport, 0, len(results)),
	}
	for i, res := range results {
		cr := CheckReport{
			Name:     names[i],
			Status:   res.Status,
			Message:  res.Message,
			Duration: res.Duration.String(),
			Details:  res.Details,
		}
		if res.Error != nil {
			cr.Error = res.Error.Error()
		}
		r.Checks = append(r.Checks, cr)
		r.Status = r.Status.Worse(res.Status)
	}
	return r
}

// WriteText renders the report as an aligned table.
func (r Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "overall\t%s\n", r.Status)
	for _, c := range r.Checks {
		msg := c.Message
		if c.Error != "" {
			msg += ": " + c.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, c.Status, c.Duration, msg)
	}
	return tw.Flush()
}
