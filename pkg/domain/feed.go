package domain

import "math"

// FeedStatus tells whether a risk feed answer can be used.
type FeedStatus string

const (
	FeedOK          FeedStatus = "ok"
	FeedNoData      FeedStatus = "no_data"
	FeedUnavailable FeedStatus = "unavailable"
)

// Contribution is one weighted scalar of a feed answer.
type Contribution struct {
	Source string  `json:"source"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
}

// FeedSample is the fixed result type of every risk feed query.
// Callers switch on Status instead of probing the shape of the payload.
type FeedSample struct {
	Status        FeedStatus     `json:"status"`
	Contributions []Contribution `json:"contributions,omitempty"`
	Err           error          `json:"-"`
}

// Sample builds an OK answer. Contributions with a non-finite value or a
// non-positive weight are dropped; an empty result is reported as no data.
func Sample(contribs ...Contribution) FeedSample {
	kept := make([]Contribution, 0, len(contribs))
	for _, c := range contribs {
		if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
			continue
		}
		if !(c.Weight > 0) || math.IsInf(c.Weight, 0) {
			continue
		}
		c.Value = Clamp01(c.Value)
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return NoData()
	}
	return FeedSample{Status: FeedOK, Contributions: kept}
}

// Scalar is a single contribution of weight 1.
func Scalar(source string, value float64) FeedSample {
	return Sample(Contribution{Source: source, Value: value, Weight: 1})
}

// NoData is returned when the feed knows nothing about the subject.
func NoData() FeedSample {
	return FeedSample{Status: FeedNoData}
}

// Unavailable wraps a feed failure.
func Unavailable(err error) FeedSample {
	if err == nil {
		err = ErrFeedUnavailable
	}
	return FeedSample{Status: FeedUnavailable, Err: err}
}

// OK reports whether the sample carries usable contributions.
func (s FeedSample) OK() bool {
	return s.Status == FeedOK && len(s.Contributions) > 0
}

// Value is the weight-normalized aggregate, Σ value·weight / Σ weight, in [0,1].
// Anything but an OK sample yields 0.
func (s FeedSample) Value() float64 {
	if !s.OK() {
		return 0
	}
	return Aggregate(s.Contributions)
}

// Mean is the plain average of the contribution values, used for sub-segment samples.
func (s FeedSample) Mean() float64 {
	if !s.OK() {
		return 0
	}
	var sum float64
	for _, c := range s.Contributions {
		sum += c.Value
	}
	return Clamp01(sum / float64(len(s.Contributions)))
}

// Aggregate normalizes contributions by their total declared weight.
func Aggregate(contribs []Contribution) float64 {
	var num, den float64
	for _, c := range contribs {
		num += c.Value * c.Weight
		den += c.Weight
	}
	if den <= 0 {
		return 0
	}
	return Clamp01(num / den)
}
