package hardware

import (
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/zap"

	"github.com/lk2023060901/querydesk-go/pkg/log"
)

var (
	cpuNumOnce sync.Once
	cpuNum     int
)

// GetCPUNum 返回当前主机可用的逻辑 CPU 数。
// gopsutil 获取失败时退回到 runtime.NumCPU，结果只计算一次。
func GetCPUNum() int {
	cpuNumOnce.Do(func() {
		n, err := cpu.Counts(true)
		if err != nil || n <= 0 {
			log.Warn("failed to get cpu counts, fallback to runtime.NumCPU", zap.Error(err))
			n = runtime.NumCPU()
		}
		// GOMAXPROCS 可能被 automaxprocs 按 cgroup 配额下调，以较小值为准。
		if procs := runtime.GOMAXPROCS(0); procs > 0 && procs < n {
			n = procs
		}
		cpuNum = n
	})
	return cpuNum
}
