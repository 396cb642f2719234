package pool

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// freeMemoryBytes reports the system's available memory, or 0 when it cannot
// be determined. Overridable in tests.
var freeMemoryBytes = detectFreeMemory

// AutoDetect picks a concurrency level bounded by both memory and core
// count: each concurrent agent invocation is assumed to need memPerWorker
// bytes of headroom, and the core bound is capped at capWorkers regardless
// of CPUs because the bottleneck is API concurrency, not CPU. The result is
// never below 1.
//
// When free memory cannot be determined, only the core bound applies.
func AutoDetect(memPerWorker int64, capWorkers int) int {
	if capWorkers < 1 {
		capWorkers = 1
	}

	cpuBound := runtime.NumCPU()
	if cpuBound > capWorkers {
		cpuBound = capWorkers
	}

	n := cpuBound
	if memPerWorker > 0 {
		if free := freeMemoryBytes(); free > 0 {
			memBound := int(free / memPerWorker)
			if memBound < n {
				n = memBound
			}
		}
	}

	if n < 1 {
		n = 1
	}
	return n
}

// detectFreeMemory reads MemAvailable from /proc/meminfo. On platforms
// without it the memory bound is simply not applied.
func detectFreeMemory() int64 {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemAvailable:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb * 1024
	}
	return 0
}
