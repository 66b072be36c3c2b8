package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studymate-platform/internal/logger"
)

// ErrExtractionFailed is returned when the extraction backend reports a
// terminal failure for a submitted job.
var ErrExtractionFailed = errors.New("text extraction failed")

// ErrExtractionTimeout is returned when a job does not reach a terminal
// state within the configured wall-clock bound.
var ErrExtractionTimeout = errors.New("text extraction timed out")

// ExtractionState is the lifecycle state of an extraction job.
type ExtractionState string

const (
	ExtractionInProgress ExtractionState = "IN_PROGRESS"
	ExtractionSucceeded  ExtractionState = "SUCCEEDED"
	ExtractionFailed     ExtractionState = "FAILED"
)

// ExtractionStatus is a point-in-time snapshot of a job.
type ExtractionStatus struct {
	State   ExtractionState
	Lines   []string
	Message string
}

// ExtractionClient submits stored objects for asynchronous text
// extraction and polls job progress.
type ExtractionClient interface {
	Submit(ctx context.Context, objectKey string) (jobID string, err error)
	Poll(ctx context.Context, jobID string) (*ExtractionStatus, error)
}

// ExtractionPoller drives an extraction job to completion. It polls at
// a fixed interval, doubling the delay after repeated in-progress
// responses, and gives up once maxWait has elapsed.
type ExtractionPoller struct {
	client   ExtractionClient
	interval time.Duration
	maxWait  time.Duration
}

const maxPollDelay = 30 * time.Second

func NewExtractionPoller(client ExtractionClient, interval, maxWait time.Duration) *ExtractionPoller {
	return &ExtractionPoller{
		client:   client,
		interval: interval,
		maxWait:  maxWait,
	}
}

// Extract submits the object and blocks until the job succeeds, fails,
// times out, or the context is cancelled. On success the extracted
// lines are trimmed and joined with newlines.
func (p *ExtractionPoller) Extract(ctx context.Context, objectKey string) (string, error) {
	jobID, err := p.client.Submit(ctx, objectKey)
	if err != nil {
		return "", fmt.Errorf("failed to submit extraction job: %w", err)
	}

	logger.Debug("extraction job submitted", "object_key", objectKey, "job_id", jobID)

	deadline := time.Now().Add(p.maxWait)
	delay := p.interval

	for {
		status, err := p.client.Poll(ctx, jobID)
		if err != nil {
			return "", fmt.Errorf("failed to poll extraction job %s: %w", jobID, err)
		}

		switch status.State {
		case ExtractionSucceeded:
			return joinLines(status.Lines), nil
		case ExtractionFailed:
			if status.Message != "" {
				return "", fmt.Errorf("%w: %s", ErrExtractionFailed, status.Message)
			}
			return "", ErrExtractionFailed
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w: job %s still running after %s", ErrExtractionTimeout, jobID, p.maxWait)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxPollDelay {
			delay = maxPollDelay
		}
	}
}

// joinLines rebuilds document text from detected lines. Blank lines
// are kept so downstream chunking still sees paragraph breaks.
func joinLines(lines []string) string {
	trimmed := make([]string, len(lines))
	for i, line := range lines {
		trimmed[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(trimmed, "\n"))
}
