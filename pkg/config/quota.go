package config

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/fairshared/fairshared/pkg/errors"
)

var quotaPattern = regexp.MustCompile(`^(\d+)([kKmMgG])$`)

// ParseQuota converts a quota string (magnitude plus k/m/g unit suffix,
// case-insensitive) into KiB, matching the unit the disk collector reports:
// k is taken verbatim, m multiplies by 1024, g by 1024².
func ParseQuota(s string) (int64, error) {
	m := quotaPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, errors.New(errors.ErrCodeStartupConfig,
			fmt.Sprintf("malformed quota %q, expected <number><k|m|g>", s))
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStartupConfig,
			fmt.Sprintf("quota magnitude %q out of range", m[1]), err)
	}

	switch m[2] {
	case "m", "M":
		n *= 1024
	case "g", "G":
		n *= 1024 * 1024
	}
	return n, nil
}
