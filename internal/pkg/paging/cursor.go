package paging

import (
	"encoding/base64"
	"errors"
	"strconv"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// EncodeCursor returns an opaque cursor positioned after the row with the given id.
func EncodeCursor(afterID int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte("c:" + strconv.FormatInt(afterID, 10)))
}

func DecodeCursor(cursor string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || len(raw) < 3 || string(raw[:2]) != "c:" {
		return 0, ErrInvalidCursor
	}
	id, err := strconv.ParseInt(string(raw[2:]), 10, 64)
	if err != nil || id < 0 {
		return 0, ErrInvalidCursor
	}
	return id, nil
}
