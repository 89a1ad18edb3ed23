package vsnap

import (
	"strconv"
	"strings"
)

// timestampFields is the number of leading integer fields in a snapshot name.
const timestampFields = 5

// EncodeSnapshotName builds the flat stored name for a file saved at ts:
//
//	<day>.<month>.<year>.<hour>.<minute>.<name>
//
// Fields are plain decimal integers without padding.
func EncodeSnapshotName(name string, ts Timestamp) string {
	var b strings.Builder
	for _, n := range []int{ts.Day, ts.Month, ts.Year, ts.Hour, ts.Minute} {
		b.WriteString(strconv.Itoa(n))
		b.WriteByte('.')
	}
	b.WriteString(name)
	return b.String()
}

// DecodeSnapshotName splits a stored name back into its timestamp and the
// original file name. The original name may itself contain dots.
// ok is false when the first five fields are not all integers or nothing
// follows them; such entries are not snapshots.
//
// A foreign file whose name happens to start with five integer fields
// decodes as a snapshot. There is no escaping scheme.
func DecodeSnapshotName(stored string) (ts Timestamp, name string, ok bool) {
	parts := strings.SplitN(stored, ".", timestampFields+1)
	if len(parts) != timestampFields+1 || parts[timestampFields] == "" {
		return Timestamp{}, "", false
	}

	var fields [timestampFields]int
	for i := 0; i < timestampFields; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return Timestamp{}, "", false
		}
		fields[i] = n
	}

	ts = Timestamp{
		Day:    fields[0],
		Month:  fields[1],
		Year:   fields[2],
		Hour:   fields[3],
		Minute: fields[4],
	}
	return ts, parts[timestampFields], true
}
