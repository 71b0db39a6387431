// Package estimate turns a file size and a transfer rate into a download
// duration, and a duration into the wall-clock time the download finishes.
package estimate

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MaxSeconds is the largest whole number of seconds a time.Duration (int64
// nanoseconds) can hold, roughly 292 years.
const MaxSeconds = math.MaxInt64 / int64(time.Second)

// FinishLayout is the 24-hour HH:MM:SS layout of projected finish times.
const FinishLayout = "15:04:05"

type DownloadTime struct {
	Hours   uint64 `json:"hours"`
	Minutes uint64 `json:"minutes"`
	Seconds uint64 `json:"seconds"`
}

func FromSeconds(total uint64) DownloadTime {
	return DownloadTime{
		Hours:   total / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}

func (d DownloadTime) TotalSeconds() int64 {
	return int64(d.Hours*3600 + d.Minutes*60 + d.Seconds)
}

func (d DownloadTime) Duration() time.Duration {
	return time.Duration(d.TotalSeconds()) * time.Second
}

// String renders the breakdown as "1 Hour 2 Minutes 3 Seconds".
func (d DownloadTime) String() string {
	parts := []string{
		plural(d.Hours, "Hour"),
		plural(d.Minutes, "Minute"),
		plural(d.Seconds, "Second"),
	}
	return strings.Join(parts, " ")
}

func plural(n uint64, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// CalculateDownloadTime returns how long fileSize bytes take at downloadSpeed
// bytes/second, truncated to whole seconds.
func CalculateDownloadTime(fileSize, downloadSpeed float64) (DownloadTime, error) {
	if math.IsNaN(downloadSpeed) || downloadSpeed <= 0 {
		return DownloadTime{}, fmt.Errorf("%w: download speed must be positive, got %v", ErrInvalidInput, downloadSpeed)
	}
	if math.IsNaN(fileSize) || fileSize < 0 {
		return DownloadTime{}, fmt.Errorf("%w: file size must not be negative, got %v", ErrInvalidInput, fileSize)
	}
	seconds := math.Floor(fileSize / downloadSpeed)
	if math.IsInf(seconds, 0) || seconds > float64(MaxSeconds) {
		return DownloadTime{}, fmt.Errorf("%w: %v bytes at %v bytes/s exceeds %d seconds", ErrOverflow, fileSize, downloadSpeed, MaxSeconds)
	}
	return FromSeconds(uint64(seconds)), nil
}

// CalculateFinishTime adds seconds (negative values allowed) to now and formats
// the result as HH:MM:SS in loc. A nil loc formats in UTC.
func CalculateFinishTime(seconds int64, now time.Time, loc *time.Location) (string, error) {
	if seconds > MaxSeconds || seconds < -MaxSeconds {
		return "", fmt.Errorf("%w: %d seconds does not fit in a duration", ErrOverflow, seconds)
	}
	if loc == nil {
		loc = time.UTC
	}
	finish := now.UTC().Add(time.Duration(seconds) * time.Second)
	return finish.In(loc).Format(FinishLayout), nil
}

// ParseLocation maps the display.timezone setting to a location: "local" (or
// empty) is the host zone, "utc" is UTC, anything else is an IANA name.
func ParseLocation(name string) (*time.Location, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "local":
		return time.Local, nil
	case "utc":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}
