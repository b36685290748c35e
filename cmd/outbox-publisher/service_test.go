package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/fashionmart/fashionmart-backend/pkg/config"
	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
)

type fakeRepo struct {
	pending   []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	fetchErr  error
}

func (f *fakeRepo) FetchPublishable(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakePublisher struct {
	sent    []models.OutboxEvent
	failFor map[uuid.UUID]error
}

func (f *fakePublisher) Publish(ctx context.Context, event models.OutboxEvent) error {
	if err := f.failFor[event.ID]; err != nil {
		return err
	}
	f.sent = append(f.sent, event)
	return nil
}

func testEvent(t *testing.T) models.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"hello": "world"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}
}

func newTestService(t *testing.T, repo *fakeRepo, publisher *fakePublisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:    config.OutboxConfig{BatchSize: 10, PollIntervalMS: 1, MaxAttempts: 3},
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Repo:      repo,
		Publisher: publisher,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestProcessBatch_PublishesAndMarks(t *testing.T) {
	first := testEvent(t)
	second := testEvent(t)
	repo := &fakeRepo{pending: []models.OutboxEvent{first, second}}
	publisher := &fakePublisher{}

	svc := newTestService(t, repo, publisher)

	processed, err := svc.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatal("expected work to be reported")
	}
	if len(publisher.sent) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(publisher.sent))
	}
	if len(repo.published) != 2 {
		t.Fatalf("expected 2 marks, got %d", len(repo.published))
	}
}

func TestProcessBatch_FailureMarksAndContinues(t *testing.T) {
	bad := testEvent(t)
	good := testEvent(t)
	repo := &fakeRepo{pending: []models.OutboxEvent{bad, good}}
	publisher := &fakePublisher{failFor: map[uuid.UUID]error{bad.ID: errors.New("broker down")}}

	svc := newTestService(t, repo, publisher)

	processed, err := svc.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatal("expected work to be reported")
	}
	if len(repo.failed) != 1 || repo.failed[0] != bad.ID {
		t.Fatalf("expected the failing event marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != good.ID {
		t.Fatalf("expected the good event published, got %v", repo.published)
	}
}

func TestProcessBatch_EmptyReportsIdle(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{})

	processed, err := svc.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if processed {
		t.Fatal("expected no work")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
