// Package timefmt converts timestamps into the literal format the Wiki
// server persists.
package timefmt

import "time"

// persistedLayout is the exact format the server stores (MySQL DATETIME).
const persistedLayout = "2006-01-02 15:04:05"

// serverZone is the timezone the server expects timestamps in.
var serverZone = loadServerZone()

func loadServerZone() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		// No tzdata available; Jakarta has no DST so a fixed offset is exact.
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

// ToPersisted formats t in the server's timezone using the persisted
// literal format.
func ToPersisted(t time.Time) string {
	return t.In(serverZone).Format(persistedLayout)
}
