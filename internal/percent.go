package sensortop

import "strconv"

// DiskUsedPercent is used/(used+free) as a percentage with one decimal,
// or "0" when the filesystem reports no space at all
func DiskUsedPercent(used, free int64) string {
	return percentOf(used, used+free)
}

// MemoryUsedPercent is memUsed/memTotal formatted like DiskUsedPercent
func MemoryUsedPercent(used, total int64) string {
	return percentOf(used, total)
}

func percentOf(part, total int64) string {
	if total <= 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(part)/float64(total)*100, 'f', 1, 64)
}
