package model

import (
	"time"

	"github.com/lk2023060901/querydesk-go/pkg/serde"
)

type QueryStatus string

const (
	QueryRunning   QueryStatus = "running"
	QuerySuccess   QueryStatus = "success"
	QueryError     QueryStatus = "error"
	QueryCancelled QueryStatus = "cancelled"
)

// HistoryEntry 为 SQL 终端中一次查询执行的记录。
type HistoryEntry struct {
	ID           string
	ConnectionID string
	Query        string
	StartedAt    time.Time
	DurationMS   int64
	RowCount     int64
	Status       QueryStatus
	Error        string
}

// Duration 返回执行耗时。
func (e *HistoryEntry) Duration() time.Duration {
	return time.Duration(e.DurationMS) * time.Millisecond
}

// QueryRequest 为发往后端执行 SQL 的请求体。
type QueryRequest struct {
	ConnectionID string
	Query        string
	Limit        int
}

func init() {
	serde.MustRegister[HistoryEntry](serde.Default,
		serde.Field("ID", serde.Identifier, serde.Name("id"), serde.Required()),
		serde.Field("ConnectionID", serde.Identifier, serde.Name("connectionId"), serde.OmitEmpty()),
		serde.Field("Query", serde.String, serde.Name("query"), serde.Required()),
		timeField("StartedAt", "startedAt", serde.Required()),
		serde.Field("DurationMS", serde.Integer, serde.Name("durationMs"), serde.Min(0)),
		serde.Field("RowCount", serde.Integer, serde.Name("rowCount"), serde.Min(0)),
		serde.Field("Status", serde.String, serde.Name("status"), serde.Required(),
			serde.OneOf(string(QueryRunning), string(QuerySuccess), string(QueryError), string(QueryCancelled))),
		serde.Field("Error", serde.String, serde.Name("error"), serde.OmitEmpty()),
	)
	serde.MustRegister[QueryRequest](serde.Default,
		serde.Field("ConnectionID", serde.Identifier, serde.Name("connectionId"), serde.Required()),
		serde.Field("Query", serde.String, serde.Name("query"), serde.Required(), serde.Trim(), serde.MinLength(1)),
		serde.Field("Limit", serde.Integer, serde.Name("limit"), serde.Min(0), serde.OmitEmpty()),
	)
}
