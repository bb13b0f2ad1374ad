package cas

import "time"

const timestampLayout = time.RFC3339Nano

func timestampNow(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}
