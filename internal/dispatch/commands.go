package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/tanq16/dltime/internal/estimate"
	"github.com/tanq16/dltime/internal/probe"
)

const (
	CmdDownloadTime = "calculate_download_time"
	CmdFinishTime   = "calculate_finish_time"
	CmdSpeedTest    = "test_internet_speed"
)

type DownloadTimeArgs struct {
	FileSize      *float64 `json:"fileSize"`
	DownloadSpeed *float64 `json:"downloadSpeed"`
}

type FinishTimeArgs struct {
	DownloadTime *int64 `json:"downloadTime"`
}

// Encode marshals the arguments for Invoke. JSON cannot carry NaN or
// infinities, so non-finite values are rejected here with the error kind
// CalculateDownloadTime gives them.
func (a DownloadTimeArgs) Encode() (json.RawMessage, error) {
	if a.FileSize != nil && a.DownloadSpeed != nil && (!isFinite(*a.FileSize) || !isFinite(*a.DownloadSpeed)) {
		if _, err := estimate.CalculateDownloadTime(*a.FileSize, *a.DownloadSpeed); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: download speed must be finite, got %v", estimate.ErrInvalidInput, *a.DownloadSpeed)
	}
	for _, v := range []*float64{a.FileSize, a.DownloadSpeed} {
		if v != nil && math.IsNaN(*v) {
			return nil, fmt.Errorf("%w: NaN argument", estimate.ErrInvalidInput)
		}
		if v != nil && math.IsInf(*v, 0) {
			return nil, fmt.Errorf("%w: infinite argument", estimate.ErrOverflow)
		}
	}
	return json.Marshal(a)
}

func (a FinishTimeArgs) Encode() (json.RawMessage, error) {
	return json.Marshal(a)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SpeedProbe is satisfied by *probe.Prober.
type SpeedProbe interface {
	Start(ctx context.Context) <-chan probe.Result
}

// RegisterCommands fills the command table with the three calculator commands.
func RegisterCommands(d *Dispatcher, projector *estimate.Projector, prober SpeedProbe) {
	d.Register(CmdDownloadTime, downloadTimeHandler)
	d.Register(CmdFinishTime, finishTimeHandler(projector))
	d.Register(CmdSpeedTest, speedTestHandler(prober, d.metrics))
}

func downloadTimeHandler(_ context.Context, raw json.RawMessage) (any, error) {
	var args DownloadTimeArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.FileSize == nil || args.DownloadSpeed == nil {
		return nil, fmt.Errorf("%w: fileSize and downloadSpeed are required", estimate.ErrInvalidInput)
	}
	return estimate.CalculateDownloadTime(*args.FileSize, *args.DownloadSpeed)
}

func finishTimeHandler(projector *estimate.Projector) Handler {
	return func(_ context.Context, raw json.RawMessage) (any, error) {
		var args FinishTimeArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		if args.DownloadTime == nil {
			return nil, fmt.Errorf("%w: downloadTime is required", estimate.ErrInvalidInput)
		}
		return projector.FinishTime(*args.DownloadTime)
	}
}

// The probe is detached from ctx: once started it runs to completion, the
// caller only stops waiting for it.
func speedTestHandler(prober SpeedProbe, metrics *Metrics) Handler {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		resultCh := prober.Start(context.WithoutCancel(ctx))
		select {
		case res, ok := <-resultCh:
			if !ok {
				return nil, fmt.Errorf("%w: probe exited without a result", probe.ErrProbeFailed)
			}
			if res.Err != nil {
				return nil, res.Err
			}
			metrics.setLastSpeed(res.Speed)
			return res.Speed, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	// integer overflow on decode (e.g. downloadTime beyond int64) surfaces here
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: malformed arguments: %v", estimate.ErrInvalidInput, err)
	}
	return nil
}
