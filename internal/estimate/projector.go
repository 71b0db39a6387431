package estimate

import "time"

// Projector projects finish times against a clock and a display location.
type Projector struct {
	Now      func() time.Time
	Location *time.Location
}

func NewProjector(loc *time.Location) *Projector {
	return &Projector{Now: time.Now, Location: loc}
}

func (p *Projector) FinishTime(seconds int64) (string, error) {
	return CalculateFinishTime(seconds, p.Now(), p.Location)
}

func (p *Projector) FinishTimeFor(d DownloadTime) (string, error) {
	return p.FinishTime(d.TotalSeconds())
}
