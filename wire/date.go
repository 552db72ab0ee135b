package wire

import "time"

// Date is an optional timestamp. An absent date has 0 milliseconds.
type Date struct {
	MillisecondsSinceEpoch uint64
}

// IsZero reports whether the date was absent on the wire.
func (d Date) IsZero() bool {
	return d.MillisecondsSinceEpoch == 0
}

// Time returns the date as a UTC time.Time with second precision.
func (d Date) Time() time.Time {
	return time.Unix(int64(d.MillisecondsSinceEpoch/1000), 0).UTC()
}

// String formats the date like "1987-05-17 17:29:45 UTC".
func (d Date) String() string {
	return d.Time().Format("2006-01-02 15:04:05") + " UTC"
}
