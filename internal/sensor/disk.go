package sensor

import (
	"context"
	"fmt"
	"math"

	"github.com/shirou/gopsutil/v4/disk"
)

// diskUsageFunc returns the total and free bytes of the filesystem holding path.
type diskUsageFunc func(ctx context.Context, path string) (total, free uint64, err error)

// filesystemUsage reports free space as the bytes available to unprivileged
// users, which is what gopsutil puts in Free.
func filesystemUsage(ctx context.Context, path string) (uint64, uint64, error) {
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, 0, fmt.Errorf("disk usage %s: %w", path, err)
	}
	return u.Total, u.Free, nil
}

func bytesToKiB(b uint64) int64 {
	return int64(math.Round(float64(b) / 1024))
}
