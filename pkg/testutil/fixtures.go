package testutil

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// Fixed UUIDs for deterministic testing
var (
	TestImageID1 = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestImageID2 = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	TestImageID3 = uuid.MustParse("00000000-0000-0000-0000-000000000003")
)

// TinyPNG is a valid 1x1 transparent PNG.
var TinyPNG = mustDecode("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

func mustDecode(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
