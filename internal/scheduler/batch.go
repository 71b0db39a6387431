package scheduler

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/tanq16/dltime/internal/units"
)

// BatchEntry is one file of a batch file.
type BatchEntry struct {
	Name string  `yaml:"name"`
	Size float64 `yaml:"size"`
	Unit string  `yaml:"unit,omitempty"`
}

// BatchFile lists files to estimate against one speed. A zero speed means the
// speed is measured with a speed test first.
type BatchFile struct {
	Speed     float64      `yaml:"speed,omitempty"`
	SpeedUnit string       `yaml:"speed_unit,omitempty"`
	Entries   []BatchEntry `yaml:"entries"`
}

func LoadBatchFile(path string) (*BatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading batch file: %v", err)
	}
	return ParseBatchFile(data)
}

func ParseBatchFile(data []byte) (*BatchFile, error) {
	var batch BatchFile
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("error parsing batch file: %v", err)
	}
	if len(batch.Entries) == 0 {
		return nil, errors.New("batch file has no entries")
	}
	if batch.Speed < 0 {
		return nil, fmt.Errorf("speed must not be negative, got %v", batch.Speed)
	}
	if _, err := units.ToBytesPerSecond(1, batch.SpeedUnit); err != nil {
		return nil, err
	}
	return &batch, nil
}

// BuildJobs converts entries into jobs, resolving size units. Entries with a
// bad unit become jobs carrying the conversion error.
func (b *BatchFile) BuildJobs() []Job {
	jobs := make([]Job, 0, len(b.Entries))
	for i, entry := range b.Entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = fmt.Sprintf("entry-%d", i+1)
		}
		job := Job{Index: i, Name: name}
		job.Bytes, job.Err = units.ToBytes(entry.Size, entry.Unit)
		jobs = append(jobs, job)
	}
	return jobs
}

// BytesPerSecond is the configured speed in bytes/second, 0 if unset.
func (b *BatchFile) BytesPerSecond() float64 {
	bps, _ := units.ToBytesPerSecond(b.Speed, b.SpeedUnit)
	return bps
}
