package endpoint

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// GlobalKey collects outcomes for URLs that match no configured endpoint.
const GlobalKey = "global"

// Thresholds are the alerting limits of an endpoint. A zero value disables the check.
type Thresholds struct {
	// ErrorRate is a percentage of responses with status >= 400.
	ErrorRate float64
	// Latency is an average response time in milliseconds.
	Latency float64
}

// Spec identifies one monitored endpoint. Exactly one of URL and Pattern is set.
type Spec struct {
	URL        string
	Pattern    *regexp.Regexp
	Thresholds Thresholds
}

// Key returns the canonical identity used to index metrics and breakers.
func (s Spec) Key() string {
	if s.Pattern != nil {
		return s.Pattern.String()
	}
	return s.URL
}

// Matches reports whether url belongs to this endpoint.
func (s Spec) Matches(url string) bool {
	if s.Pattern != nil {
		return s.Pattern.MatchString(url)
	}
	return s.URL == url
}

func (s Spec) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.URL,
			validation.When(s.Pattern == nil, validation.Required.Error("url or pattern is required")),
			validation.When(s.Pattern != nil, validation.Empty.Error("url and pattern are mutually exclusive")),
		),
		validation.Field(&s.Thresholds),
	)
}

func (t Thresholds) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ErrorRate, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&t.Latency, validation.Min(0.0)),
	)
}
