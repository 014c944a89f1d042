package songcache

import (
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/backline-audio/engine/internal/conf"
)

// DefaultByteBudget returns 10% of total system RAM, floored at 256MiB, for
// operators who leave audio.cachebytebudget at its zero-value default
// (spec.md §4.C, SPEC_FULL.md §12).
func DefaultByteBudget() int64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("failed to read system memory, using floor budget", "error", err)
		return conf.DefaultCacheBudgetFloorBytes
	}

	budget := int64(float64(vm.Total) * conf.DefaultCacheBudgetRAMFraction)
	if budget < conf.DefaultCacheBudgetFloorBytes {
		return conf.DefaultCacheBudgetFloorBytes
	}
	return budget
}
