// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package stream

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrBadRange is returned for Range headers that do not match bytes=A-[B].
var ErrBadRange = errors.New("stream: bad range")

var rangePattern = regexp.MustCompile(`bytes=([0-9]+)-([0-9]+)?`)

// ByteRange is a parsed Range header with block alignment applied.
type ByteRange struct {
	// Start is the requested first byte position.
	Start int64
	// End is the explicit upper cap, or -1 when the range is open-ended.
	End int64
	// Offset is Start rounded down to a block boundary.
	Offset int64
	// Skip is the number of leading bytes of the first block not requested.
	Skip int64
}

// ParseRange parses a Range header of the form bytes=A-[B] and aligns the
// start position to blockSize.
func ParseRange(header string, blockSize int64) (ByteRange, error) {
	m := rangePattern.FindStringSubmatch(header)
	if m == nil {
		return ByteRange{}, ErrBadRange
	}

	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return ByteRange{}, ErrBadRange
	}

	end := int64(-1)
	if m[2] != "" {
		end, err = strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return ByteRange{}, ErrBadRange
		}
	}

	offset := start / blockSize * blockSize
	return ByteRange{
		Start:  start,
		End:    end,
		Offset: offset,
		Skip:   start - offset,
	}, nil
}
