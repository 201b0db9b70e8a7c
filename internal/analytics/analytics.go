// Package analytics folds the raw feedback log into the dashboard metrics.
// Everything here is a pure function of its input.
package analytics

import (
	"math"
	"sort"
	"time"

	"sopchat/internal/chat"
)

// UnknownDate labels the trend bucket for records whose timestamp is absent
// or unparsable. It always sorts after every real date.
const UnknownDate = "unknown"

const (
	BandPositive = "positive"
	BandNeutral  = "neutral"
	BandNegative = "negative"
)

// Summary carries the KPI counts derived from the feedback log.
type Summary struct {
	Total         int
	Likes         int
	Dislikes      int
	FeedbackGiven int

	// QualityScore is the percentage of liked responses among responses
	// with an expressed polarity, 0 when none have one.
	QualityScore int
	Band         string
}

// TrendBucket counts like/dislike votes for one calendar date.
type TrendBucket struct {
	Date     string
	Likes    int
	Dislikes int
}

// Summarize computes the KPI summary over the feedback log.
func Summarize(records []chat.FeedbackRecord) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch {
		case r.Liked == nil:
		case *r.Liked:
			s.Likes++
		default:
			s.Dislikes++
		}
	}
	s.FeedbackGiven = s.Likes + s.Dislikes
	if s.FeedbackGiven > 0 {
		s.QualityScore = int(math.Round(100 * float64(s.Likes) / float64(s.FeedbackGiven)))
	}
	s.Band = band(s.QualityScore)
	return s
}

func band(score int) string {
	switch {
	case score >= 75:
		return BandPositive
	case score >= 40:
		return BandNeutral
	default:
		return BandNegative
	}
}

// Trend groups the feedback log by calendar date and counts votes per day.
// Buckets come back sorted ascending by date, with the unknown bucket last.
// Records with no expressed polarity still create their date's bucket but
// count toward neither side.
func Trend(records []chat.FeedbackRecord) []TrendBucket {
	byDate := make(map[string]*TrendBucket)
	for _, r := range records {
		date := bucketDate(r.CreatedAt)
		b, ok := byDate[date]
		if !ok {
			b = &TrendBucket{Date: date}
			byDate[date] = b
		}
		switch {
		case r.Liked == nil:
		case *r.Liked:
			b.Likes++
		default:
			b.Dislikes++
		}
	}

	out := make([]TrendBucket, 0, len(byDate))
	for _, b := range byDate {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date == UnknownDate {
			return false
		}
		if out[j].Date == UnknownDate {
			return true
		}
		return out[i].Date < out[j].Date
	})
	return out
}

// bucketDate extracts the YYYY-MM-DD portion of an ISO-8601 timestamp.
func bucketDate(createdAt *string) string {
	if createdAt == nil || *createdAt == "" {
		return UnknownDate
	}
	if t, err := time.Parse(time.RFC3339, *createdAt); err == nil {
		return t.Format("2006-01-02")
	}
	// Backends that store naive timestamps omit the zone suffix.
	if t, err := time.Parse("2006-01-02T15:04:05", *createdAt); err == nil {
		return t.Format("2006-01-02")
	}
	return UnknownDate
}
