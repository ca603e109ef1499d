package history

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatDuration 渲染查询耗时：不足一秒显示毫秒，不足一分钟显示两位小数的秒。
func FormatDuration(d time.Duration) string {
	switch {
	case d < 0:
		return "-"
	case d < time.Second:
		return fmt.Sprintf("%d ms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2f s", d.Seconds())
	}
	return fmt.Sprintf("%dm %02ds", int(d.Minutes()), int(d.Seconds())%60)
}

// FormatRows 渲染行数，带千分位。
func FormatRows(n int64) string {
	if n == 1 {
		return "1 row"
	}
	return humanize.Comma(n) + " rows"
}

// FormatStartedAt 渲染相对 now 的开始时间，例如 "3 minutes ago"。
func FormatStartedAt(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatSize 渲染存储占用。
func FormatSize(n uint64) string {
	return humanize.Bytes(n)
}
