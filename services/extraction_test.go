package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scriptedExtractor struct {
	jobID    string
	statuses []*ExtractionStatus
	polls    int
}

func (s *scriptedExtractor) Submit(ctx context.Context, objectKey string) (string, error) {
	return s.jobID, nil
}

func (s *scriptedExtractor) Poll(ctx context.Context, jobID string) (*ExtractionStatus, error) {
	if s.polls >= len(s.statuses) {
		return nil, errors.New("polled past end of script")
	}
	status := s.statuses[s.polls]
	s.polls++
	return status, nil
}

func TestExtractionPollerSucceedsAfterProgress(t *testing.T) {
	fake := &scriptedExtractor{
		jobID: "job-1",
		statuses: []*ExtractionStatus{
			{State: ExtractionInProgress},
			{State: ExtractionInProgress},
			{State: ExtractionSucceeded, Lines: []string{"  first line ", "second line"}},
		},
	}
	poller := NewExtractionPoller(fake, time.Millisecond, time.Second)

	text, err := poller.Extract(context.Background(), "docs/a.pdf")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if want := "first line\nsecond line"; text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if fake.polls != 3 {
		t.Errorf("polls = %d, want 3", fake.polls)
	}
}

func TestExtractionPollerReportsFailure(t *testing.T) {
	fake := &scriptedExtractor{
		jobID: "job-2",
		statuses: []*ExtractionStatus{
			{State: ExtractionFailed, Message: "unsupported document"},
		},
	}
	poller := NewExtractionPoller(fake, time.Millisecond, time.Second)

	_, err := poller.Extract(context.Background(), "docs/b.pdf")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("Extract error = %v, want ErrExtractionFailed", err)
	}
}

func TestExtractionPollerHonorsDeadline(t *testing.T) {
	fake := &scriptedExtractor{
		jobID: "job-3",
		statuses: []*ExtractionStatus{
			{State: ExtractionInProgress},
			{State: ExtractionInProgress},
			{State: ExtractionInProgress},
			{State: ExtractionInProgress},
		},
	}
	poller := NewExtractionPoller(fake, 5*time.Millisecond, time.Millisecond)

	_, err := poller.Extract(context.Background(), "docs/c.pdf")
	if !errors.Is(err, ErrExtractionTimeout) {
		t.Fatalf("Extract error = %v, want ErrExtractionTimeout", err)
	}
}

func TestExtractionPollerStopsOnCancel(t *testing.T) {
	fake := &scriptedExtractor{
		jobID: "job-4",
		statuses: []*ExtractionStatus{
			{State: ExtractionInProgress},
			{State: ExtractionInProgress},
			{State: ExtractionInProgress},
		},
	}
	poller := NewExtractionPoller(fake, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := poller.Extract(ctx, "docs/d.pdf")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Extract error = %v, want context.Canceled", err)
	}
}
