package textutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FormatTimestamp renders whole seconds as HH:MM:SS. Negative input clamps to zero.
func FormatTimestamp(sec float64) string {
	s := int(max(0, sec))
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// ParseTimestamp converts HH:MM:SS or MM:SS into seconds. Unparseable input yields 0.
func ParseTimestamp(ts string) int {
	parts := strings.Split(ts, ":")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		nums = append(nums, n)
	}
	switch len(nums) {
	case 3:
		return nums[0]*3600 + nums[1]*60 + nums[2]
	case 2:
		return nums[0]*60 + nums[1]
	}
	return 0
}

var (
	hhmmss = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
	mmss   = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// EnsureHHMMSS normalises a timestamp to HH:MM:SS, mapping anything else to 00:00:00.
func EnsureHHMMSS(ts string) string {
	if hhmmss.MatchString(ts) {
		return ts
	}
	if m := mmss.FindStringSubmatch(ts); m != nil {
		n, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("00:%02d:%s", n, m[2])
	}
	return "00:00:00"
}
