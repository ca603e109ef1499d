// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// querydeskNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	querydeskNamespace = "querydesk"

	serdeSubsystem     = "serde"
	transportSubsystem = "transport"
	historySubsystem   = "history"

	ModelLabelName     = "model"
	OperationLabelName = "operation"
	StatusLabelName    = "status"
	KindLabelName      = "kind"
	MethodLabelName    = "method"
	ActionLabelName    = "action"

	SuccessLabel = "success"
	FailLabel    = "fail"

	DecodeLabel = "decode"
	EncodeLabel = "encode"
)

var (
	// buckets 为请求耗时直方图的桶划分，单位为毫秒。
	// 实际桶分布为：
	// [1 2 4 8 16 32 64 128 256 512 1024 2048 4096 8192 16384 32768 65536 1.31072e+05]
	buckets = prometheus.ExponentialBuckets(1, 2, 18)

	SerdeOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: querydeskNamespace,
			Subsystem: serdeSubsystem,
			Name:      "operations_total",
			Help:      "count of top level decode/encode calls",
		}, []string{ModelLabelName, OperationLabelName, StatusLabelName})

	SerdeConfigErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: querydeskNamespace,
			Subsystem: serdeSubsystem,
			Name:      "config_errors_total",
			Help:      "count of model declaration errors reported to the notifier",
		}, []string{ModelLabelName})

	TransportRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: querydeskNamespace,
			Subsystem: transportSubsystem,
			Name:      "requests_total",
			Help:      "count of requests sent to the backend service",
		}, []string{MethodLabelName, StatusLabelName})

	TransportLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: querydeskNamespace,
			Subsystem: transportSubsystem,
			Name:      "request_latency",
			Help:      "latency of requests sent to the backend service in milliseconds",
			Buckets:   buckets,
		}, []string{MethodLabelName})

	TransportStreamMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: querydeskNamespace,
			Subsystem: transportSubsystem,
			Name:      "stream_messages_total",
			Help:      "count of messages received from websocket streams",
		}, []string{StatusLabelName})

	HistoryEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: querydeskNamespace,
			Subsystem: historySubsystem,
			Name:      "entries",
			Help:      "number of query history entries held by the cache",
		})

	HistoryActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: querydeskNamespace,
			Subsystem: historySubsystem,
			Name:      "actions_total",
			Help:      "count of actions dispatched to the history reducer",
		}, []string{ActionLabelName, StatusLabelName})

	metricRegisterer prometheus.Registerer
	registerOnce     sync.Once
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标，重复调用只生效一次。
func Register(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(SerdeOperations)
		r.MustRegister(SerdeConfigErrors)
		r.MustRegister(TransportRequests)
		r.MustRegister(TransportLatency)
		r.MustRegister(TransportStreamMessages)
		r.MustRegister(HistoryEntries)
		r.MustRegister(HistoryActions)
		metricRegisterer = r
	})
}
