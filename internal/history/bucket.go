package history

import (
	"time"

	"github.com/lk2023060901/querydesk-go/internal/model"
)

const (
	BucketToday     = "Today"
	BucketYesterday = "Yesterday"
	BucketThisWeek  = "This week"
	BucketThisMonth = "This month"
	BucketOlder     = "Older"
)

var bucketLabels = []string{BucketToday, BucketYesterday, BucketThisWeek, BucketThisMonth, BucketOlder}

// Bucket 为按日期分组后的一组记录。
type Bucket struct {
	Label   string
	Entries []*model.HistoryEntry
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// bucketOf 以 now 所在时区计算 t 所属的分组，一周从周一开始。
func bucketOf(t, now time.Time) string {
	t = t.In(now.Location())
	today := startOfDay(now)
	if !t.Before(today) {
		return BucketToday
	}
	yesterday := today.AddDate(0, 0, -1)
	if !t.Before(yesterday) {
		return BucketYesterday
	}
	weekday := (int(now.Weekday()) + 6) % 7
	if !t.Before(today.AddDate(0, 0, -weekday)) {
		return BucketThisWeek
	}
	y, m, _ := now.Date()
	if !t.Before(time.Date(y, m, 1, 0, 0, 0, 0, now.Location())) {
		return BucketThisMonth
	}
	return BucketOlder
}

// Buckets 将记录按日期分组，只返回非空分组，组内保持由新到旧的顺序。
func (s State) Buckets(now time.Time) []Bucket {
	grouped := make(map[string][]*model.HistoryEntry, len(bucketLabels))
	for _, e := range s.entries {
		label := bucketOf(e.StartedAt, now)
		grouped[label] = append(grouped[label], e)
	}
	buckets := make([]Bucket, 0, len(grouped))
	for _, label := range bucketLabels {
		if entries, ok := grouped[label]; ok {
			buckets = append(buckets, Bucket{Label: label, Entries: entries})
		}
	}
	return buckets
}
