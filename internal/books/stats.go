package books

import (
	"math"
	"sort"
	"time"
)

const (
	UncategorizedGenre = "Uncategorized"
	NoGenre            = "None"
	growthMonths       = 6
)

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

type MonthKey struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) MonthKey {
	t = t.UTC()
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// Aggregates are the raw owner scoped counters storage hands back.
type Aggregates struct {
	Total        int64
	StatusCounts map[Status]int64
	GenreCounts  map[string]int64
	MonthCounts  map[MonthKey]int64
}

type GenreStat struct {
	Genre string `json:"genre"`
	Count int64  `json:"count"`
}

type MonthStat struct {
	Month      string `json:"month"`
	Year       int    `json:"year"`
	BooksAdded int64  `json:"booksAdded"`
}

type StatsDetails struct {
	TotalBooks     int64       `json:"totalBooks"`
	CompletionRate int         `json:"completionRate"`
	TopGenre       string      `json:"topGenre"`
	GenreStats     []GenreStat `json:"genreStats"`
	MonthlyStats   []MonthStat `json:"monthlyStats"`
}

// StatusStats always carries unread, reading and completed, plus any other
// status that shows up in counts.
func StatusStats(counts map[Status]int64) map[string]int64 {
	out := map[string]int64{
		string(StatusUnread):    0,
		string(StatusReading):   0,
		string(StatusCompleted): 0,
	}
	for s, n := range counts {
		out[string(s)] += n
	}
	return out
}

// CompletionRate is completed/total as a rounded percentage.
func CompletionRate(completed, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) * 100 / float64(total)))
}

// GenreDistribution folds empty genres into Uncategorized and orders by
// count, descending, then by name.
func GenreDistribution(counts map[string]int64) []GenreStat {
	merged := make(map[string]int64, len(counts))
	for g, n := range counts {
		if g == "" {
			g = UncategorizedGenre
		}
		merged[g] += n
	}

	out := make([]GenreStat, 0, len(merged))
	for g, n := range merged {
		out = append(out, GenreStat{Genre: g, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Genre < out[j].Genre
	})
	return out
}

func TopGenre(dist []GenreStat) string {
	top, best, found := NoGenre, int64(0), false
	for _, g := range dist {
		if !found || g.Count > best || (g.Count == best && g.Genre < top) {
			top, best, found = g.Genre, g.Count, true
		}
	}
	return top
}

// GrowthWindowStart is the first instant counted by SixMonthGrowth.
func GrowthWindowStart(now time.Time) time.Time {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -(growthMonths - 1), 0)
}

// SixMonthGrowth returns the current month and the five before it, oldest
// first. Months without books are zero.
func SixMonthGrowth(now time.Time, counts map[MonthKey]int64) []MonthStat {
	start := GrowthWindowStart(now)
	out := make([]MonthStat, 0, growthMonths)
	for i := 0; i < growthMonths; i++ {
		m := start.AddDate(0, i, 0)
		key := MonthKey{Year: m.Year(), Month: m.Month()}
		out = append(out, MonthStat{
			Month:      monthNames[m.Month()-1],
			Year:       m.Year(),
			BooksAdded: counts[key],
		})
	}
	return out
}

func BuildStatsDetails(now time.Time, agg Aggregates) StatsDetails {
	dist := GenreDistribution(agg.GenreCounts)
	return StatsDetails{
		TotalBooks:     agg.Total,
		CompletionRate: CompletionRate(agg.StatusCounts[StatusCompleted], agg.Total),
		TopGenre:       TopGenre(dist),
		GenreStats:     dist,
		MonthlyStats:   SixMonthGrowth(now, agg.MonthCounts),
	}
}
