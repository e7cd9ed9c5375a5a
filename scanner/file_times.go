package scanner

import (
	"time"

	"github.com/djherbis/times"
)

type FileTimes struct {
	CreationTime string
	AccessTime   string
	ChangeTime   string
}

// fileTimes reads the timestamps the platform keeps. Birth and change
// times stay empty where the filesystem has none.
func fileTimes(path string) (FileTimes, error) {
	ts, err := times.Stat(path)
	if err != nil {
		return FileTimes{}, err
	}
	var ft FileTimes
	ft.AccessTime = ts.AccessTime().UTC().Format(time.RFC3339)
	if ts.HasChangeTime() {
		ft.ChangeTime = ts.ChangeTime().UTC().Format(time.RFC3339)
	}
	if ts.HasBirthTime() {
		ft.CreationTime = ts.BirthTime().UTC().Format(time.RFC3339)
	}
	return ft, nil
}
