// Package probe measures achievable download throughput by timing a fixed-size
// download from a benchmark endpoint.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/dltime/internal/utils"
)

const (
	DefaultURL          = "https://speed.cloudflare.com/__down"
	DefaultPayloadBytes = 10_000_000
)

var ErrProbeFailed = errors.New("speed probe failed")

type Config struct {
	URL              string
	PayloadBytes     int64
	HTTPClientConfig utils.HTTPClientConfig
}

type Result struct {
	Speed float64 // bytes/second
	Err   error
}

type ProgressFunc func(read, total int64)

type Prober struct {
	config   Config
	client   utils.HTTPDoer
	now      func() time.Time
	progress ProgressFunc
}

func New(cfg Config) *Prober {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.PayloadBytes <= 0 {
		cfg.PayloadBytes = DefaultPayloadBytes
	}
	return &Prober{
		config: cfg,
		client: utils.NewDltimeHTTPClient(cfg.HTTPClientConfig),
		now:    time.Now,
	}
}

func (p *Prober) SetProgressFunc(fn ProgressFunc) {
	p.progress = fn
}

func (p *Prober) PayloadBytes() int64 {
	return p.config.PayloadBytes
}

// Start runs Measure on its own goroutine. The returned channel yields exactly
// one Result and is then closed.
func (p *Prober) Start(ctx context.Context) <-chan Result {
	resultCh := make(chan Result, 1)
	go func() {
		defer close(resultCh)
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("op", "probe/start").Msgf("Probe worker panicked: %v", r)
				resultCh <- Result{Err: fmt.Errorf("%w: worker panic: %v", ErrProbeFailed, r)}
			}
		}()
		speed, err := p.Measure(ctx)
		resultCh <- Result{Speed: speed, Err: err}
	}()
	return resultCh
}

// Measure blocks until the payload is fully downloaded and returns the
// observed throughput in bytes/second.
func (p *Prober) Measure(ctx context.Context) (float64, error) {
	target, err := p.payloadURL()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: error creating GET request: %v", ErrProbeFailed, err)
	}
	log.Debug().Str("op", "probe/measure").Msgf("Downloading %d bytes from %s", p.config.PayloadBytes, target)

	start := p.now()
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: error executing GET request: %v", ErrProbeFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: unexpected status code: %d", ErrProbeFailed, resp.StatusCode)
	}

	read, err := p.drain(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: error reading response body: %v", ErrProbeFailed, err)
	}
	elapsed := p.now().Sub(start)
	if read < p.config.PayloadBytes {
		return 0, fmt.Errorf("%w: short payload, got %d of %d bytes", ErrProbeFailed, read, p.config.PayloadBytes)
	}
	if elapsed <= 0 {
		return 0, fmt.Errorf("%w: no measurable elapsed time", ErrProbeFailed)
	}
	speed := float64(read) / elapsed.Seconds()
	log.Debug().Str("op", "probe/measure").Msgf("Read %d bytes in %s (%.0f B/s)", read, elapsed, speed)
	return speed, nil
}

func (p *Prober) drain(body io.Reader) (int64, error) {
	var read int64
	buffer := make([]byte, utils.DefaultBufferSize)
	for {
		n, readErr := body.Read(buffer)
		if n > 0 {
			read += int64(n)
			if p.progress != nil {
				p.progress(read, p.config.PayloadBytes)
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return read, nil
			}
			return read, readErr
		}
	}
}

func (p *Prober) payloadURL() (string, error) {
	u, err := url.Parse(p.config.URL)
	if err != nil {
		return "", fmt.Errorf("invalid probe URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	q := u.Query()
	q.Set("bytes", strconv.FormatInt(p.config.PayloadBytes, 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
