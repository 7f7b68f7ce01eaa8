package bootstrap

import (
	"runtime"
	"strconv"
	"strings"
)

// DetectResources gathers evidence about CPU and memory
func DetectResources(h Host) []Evidence {
	evidence := []Evidence{
		NewEvidence(CategoryResources, "cpu_cores", runtime.NumCPU(), 0.99, "runtime", "runtime.NumCPU()"),
		NewEvidence(CategoryResources, "architecture", runtime.GOARCH, 1.0, "runtime", "runtime.GOARCH"),
		NewEvidence(CategoryResources, "os", h.GOOS, 1.0, "runtime", "runtime.GOOS"),
	}

	if kb, ok := meminfoField(h.ReadFile("/proc/meminfo"), "MemTotal:"); ok {
		evidence = append(evidence, NewEvidence(
			CategoryResources, "memory_mb", int(kb/1024), 0.95,
			"procfs", "/proc/meminfo MemTotal",
		).WithRaw(map[string]any{"memory_kb": kb}))
	}

	// cgroup v2 limit takes precedence in containers
	if limit := strings.TrimSpace(h.ReadFile("/sys/fs/cgroup/memory.max")); limit != "" && limit != "max" {
		if b, err := strconv.ParseInt(limit, 10, 64); err == nil {
			evidence = append(evidence, NewEvidence(
				CategoryResources, "memory_limit_mb", int(b/1024/1024), 0.92,
				"cgroup", "cgroup v2 memory.max",
			))
		}
	}

	return evidence
}

func meminfoField(meminfo, key string) (int64, bool) {
	for _, line := range strings.Split(meminfo, "\n") {
		if !strings.HasPrefix(line, key) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, false
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		return kb, err == nil
	}
	return 0, false
}
