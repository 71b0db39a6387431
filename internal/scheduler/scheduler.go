package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/dltime/internal/dispatch"
	"github.com/tanq16/dltime/internal/estimate"
	"github.com/tanq16/dltime/internal/units"
)

type Job struct {
	Index  int
	Name   string
	Bytes  float64
	Time   estimate.DownloadTime
	Finish string
	Err    error
}

// Reporter receives per-job progress; *output.Manager satisfies it.
type Reporter interface {
	Register(label string) int
	SetMessage(id int, message string)
	Complete(id int, message string)
	ReportError(id int, err error)
}

// Run estimates every job at speed bytes/second through the dispatcher using
// numWorkers goroutines. Results keep the input order.
func Run(ctx context.Context, d *dispatch.Dispatcher, jobs []Job, speed float64, numWorkers int, reporter Reporter) []Job {
	if numWorkers < 1 {
		numWorkers = 1
	}
	jobCh := make(chan int, len(jobs))
	for i := range jobs {
		jobCh <- i
	}
	close(jobCh)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobCh {
				processJob(ctx, d, &jobs[i], speed, reporter)
			}
		}()
	}
	wg.Wait()
	return jobs
}

func processJob(ctx context.Context, d *dispatch.Dispatcher, job *Job, speed float64, reporter Reporter) {
	id := 0
	if reporter != nil {
		id = reporter.Register(job.Name)
		reporter.SetMessage(id, fmt.Sprintf("Estimating %s (%s)", job.Name, units.FormatSize(job.Bytes)))
	}
	fail := func(err error) {
		job.Err = err
		log.Debug().Str("op", "scheduler/process").Err(err).Msgf("Estimate failed for %s", job.Name)
		if reporter != nil {
			reporter.ReportError(id, err)
		}
	}
	if job.Err != nil {
		fail(job.Err)
		return
	}

	bytes := job.Bytes
	args, err := dispatch.DownloadTimeArgs{FileSize: &bytes, DownloadSpeed: &speed}.Encode()
	if err != nil {
		fail(err)
		return
	}
	inv, err := d.Invoke(ctx, dispatch.CmdDownloadTime, args)
	if err != nil {
		fail(err)
		return
	}
	job.Time = inv.Result.(estimate.DownloadTime)

	seconds := job.Time.TotalSeconds()
	args, err = dispatch.FinishTimeArgs{DownloadTime: &seconds}.Encode()
	if err != nil {
		fail(err)
		return
	}
	inv, err = d.Invoke(ctx, dispatch.CmdFinishTime, args)
	if err != nil {
		fail(err)
		return
	}
	job.Finish = inv.Result.(string)
	if reporter != nil {
		reporter.Complete(id, fmt.Sprintf("%s → %s", job.Name, job.Time))
	}
}
