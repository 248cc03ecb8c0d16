package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/agedist/internal/logging"
	"github.com/JonMunkholm/agedist/internal/storage"
)

// Bucket is an age range label.
type Bucket string

const (
	BucketUnder20 Bucket = "< 20"
	Bucket20To40  Bucket = "20 to 40"
	Bucket40To60  Bucket = "40 to 60"
	BucketOver60  Bucket = "> 60"
)

// Buckets lists the labels in display order.
var Buckets = []Bucket{BucketUnder20, Bucket20To40, Bucket40To60, BucketOver60}

// AgeDistribution counts rows per bucket. Values from NewAgeDistribution
// always hold all four labels.
type AgeDistribution map[Bucket]int64

// NewAgeDistribution returns a distribution with every bucket at zero.
func NewAgeDistribution() AgeDistribution {
	d := make(AgeDistribution, len(Buckets))
	for _, b := range Buckets {
		d[b] = 0
	}
	return d
}

// Total returns the sum over all buckets.
func (d AgeDistribution) Total() int64 {
	var n int64
	for _, c := range d {
		n += c
	}
	return n
}

// BucketFor returns the bucket for age:
//
//	age < 20          -> "< 20"
//	20 <= age <= 40   -> "20 to 40"
//	40 <  age <= 60   -> "40 to 60"
//	age > 60          -> "> 60"
func BucketFor(age int64) Bucket {
	switch {
	case age < 20:
		return BucketUnder20
	case age <= 40:
		return Bucket20To40
	case age <= 60:
		return Bucket40To60
	default:
		return BucketOver60
	}
}

// ParseAge reads the leading integer of s: surrounding whitespace and an
// optional sign are allowed and anything after the digits is ignored, so
// "30", " 30 " and "30 years" all give 30. ok is false when s does not start
// with a digit; such ages belong to no bucket. Values beyond int64 saturate.
func ParseAge(s string) (age int64, ok bool) {
	s = strings.TrimSpace(s)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}

	// On overflow ParseInt returns the saturated value with ErrRange.
	age, _ = strconv.ParseInt(s[:end], 10, 64)
	return age, true
}

// Aggregator computes the age distribution over all persisted rows.
type Aggregator struct {
	store storage.Store
}

// NewAggregator returns an Aggregator reading from store.
func NewAggregator(store storage.Store) *Aggregator {
	return &Aggregator{store: store}
}

// Aggregate runs one grouped count and buckets the result. Rows whose age
// has no leading integer (empty, non-numeric or NULL) are left out of every
// bucket without error. Query failures are returned as *AggregateError.
func (a *Aggregator) Aggregate(ctx context.Context) (AgeDistribution, error) {
	counts, err := a.store.CountByAge(ctx)
	if err != nil {
		return nil, &AggregateError{Err: err}
	}

	dist := Distribute(counts)

	var skipped int64
	for _, c := range counts {
		if _, ok := ParseAge(c.Age); !ok || !c.Valid {
			skipped += c.Count
		}
	}
	logDistribution(ctx, dist, skipped)

	return dist, nil
}

// Distribute buckets grouped age counts.
func Distribute(counts []storage.AgeCount) AgeDistribution {
	dist := NewAgeDistribution()
	for _, c := range counts {
		if !c.Valid {
			continue
		}
		age, ok := ParseAge(c.Age)
		if !ok {
			continue
		}
		dist[BucketFor(age)] += c.Count
	}
	return dist
}

func logDistribution(ctx context.Context, dist AgeDistribution, skipped int64) {
	args := make([]any, 0, 2*len(Buckets)+2)
	for _, b := range Buckets {
		args = append(args, string(b), dist[b])
	}
	args = append(args, "unparseable", skipped)
	logging.FromContext(ctx).Info(fmt.Sprintf("age distribution (%d rows)", dist.Total()), args...)
}
