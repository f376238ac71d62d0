package llm

import "context"

type contextKey int

const (
	purposeKey contextKey = iota
	reportKey
)

// WithPurpose labels calls made with ctx, e.g. "advisory". The label is
// stored on every recorded event.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom returns the purpose label, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// WithReport ties calls made with ctx to a stored report id so failures in
// the log can be traced back to the results that prompted them. The id never
// reaches the provider.
func WithReport(ctx context.Context, reportID string) context.Context {
	return context.WithValue(ctx, reportKey, reportID)
}

// ReportFrom returns the report id attached by WithReport, or "".
func ReportFrom(ctx context.Context) string {
	v, _ := ctx.Value(reportKey).(string)
	return v
}
