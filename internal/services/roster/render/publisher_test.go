package render

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/raidroster/internal/platform/errors"
	"github.com/louisbranch/raidroster/internal/services/roster/channel"
	"github.com/louisbranch/raidroster/internal/services/roster/channel/channeltest"
	"github.com/louisbranch/raidroster/internal/services/roster/metrics"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

type fakeStore struct {
	mu        sync.Mutex
	events    map[string]storage.EventRecord
	counts    storage.SignupCounts
	roster    []storage.RosterEntry
	refWrites int
	refErr    error
}

func newFakeStore(events ...storage.EventRecord) *fakeStore {
	s := &fakeStore{events: make(map[string]storage.EventRecord)}
	for _, event := range events {
		s.events[event.ID] = event
	}
	return s
}

func (s *fakeStore) GetEvent(_ context.Context, id string) (storage.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return storage.EventRecord{}, storage.ErrNotFound
	}
	return event, nil
}

func (s *fakeStore) CountSignups(context.Context, string) (storage.SignupCounts, error) {
	return s.counts, nil
}

func (s *fakeStore) ListRoster(context.Context, string) ([]storage.RosterEntry, error) {
	return s.roster, nil
}

func (s *fakeStore) SetEventRefs(_ context.Context, eventID, announcementRef, rosterRef string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refErr != nil {
		return s.refErr
	}
	event := s.events[eventID]
	event.AnnouncementRef = announcementRef
	event.RosterRef = rosterRef
	event.UpdatedAt = at
	s.events[eventID] = event
	s.refWrites++
	return nil
}

func (s *fakeStore) event(id string) storage.EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id]
}

func newTestPublisher(store Store, ch channel.Channel) *Publisher {
	return NewPublisher(store, ch, english(),
		WithClock(func() time.Time { return time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC) }),
		WithLogger(zap.NewNop()),
		WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
}

func TestPublishCreatesThenEdits(t *testing.T) {
	t.Parallel()

	store := newFakeStore(testEvent)
	ch := channeltest.New()
	pub := newTestPublisher(store, ch)

	first, err := pub.Publish(context.Background(), testEvent.ID)
	if err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if ch.Creates != 2 || ch.EditCalls != 0 {
		t.Fatalf("first publish creates=%d edits=%d, want 2/0", ch.Creates, ch.EditCalls)
	}
	stored := store.event(testEvent.ID)
	if stored.AnnouncementRef != first.AnnouncementRef || stored.RosterRef != first.RosterRef {
		t.Fatalf("refs not persisted: %+v vs %+v", stored, first)
	}

	store.roster = entries(storage.CharacterRoleTank, 1, "T")
	second, err := pub.Publish(context.Background(), testEvent.ID)
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if ch.Creates != 2 || ch.EditCalls != 2 {
		t.Fatalf("second publish creates=%d edits=%d, want 2/2", ch.Creates, ch.EditCalls)
	}
	if second.AnnouncementRef != first.AnnouncementRef {
		t.Fatalf("announcement ref changed on edit")
	}
	if store.refWrites != 1 {
		t.Fatalf("ref writes = %d, want 1", store.refWrites)
	}
	posted, ok := ch.Get(first.RosterRef)
	if !ok || posted.Message.Fields[0].Value != "🛡️ **Tanks (1)**: T01" {
		t.Fatalf("roster message = %+v", posted)
	}
}

func TestPublishRecreatesVanishedMessage(t *testing.T) {
	t.Parallel()

	store := newFakeStore(testEvent)
	ch := channeltest.New()
	pub := newTestPublisher(store, ch)

	first, err := pub.Publish(context.Background(), testEvent.ID)
	if err != nil {
		t.Fatalf("first publish: %v", err)
	}
	ch.Delete(first.AnnouncementRef)

	second, err := pub.Publish(context.Background(), testEvent.ID)
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if second.Recreated != 1 {
		t.Fatalf("recreated = %d, want 1", second.Recreated)
	}
	if second.AnnouncementRef == first.AnnouncementRef {
		t.Fatal("announcement ref not replaced")
	}
	if got := store.event(testEvent.ID).AnnouncementRef; got != second.AnnouncementRef {
		t.Fatalf("stored announcement ref = %q, want %q", got, second.AnnouncementRef)
	}
	if second.RosterRef != first.RosterRef {
		t.Fatal("roster ref changed although its message still exists")
	}
}

func TestPublishFailureLeavesRefsUntouched(t *testing.T) {
	t.Parallel()

	store := newFakeStore(testEvent)
	ch := channeltest.New()
	pub := newTestPublisher(store, ch)

	first, err := pub.Publish(context.Background(), testEvent.ID)
	if err != nil {
		t.Fatalf("first publish: %v", err)
	}
	ch.Delete(first.AnnouncementRef)
	ch.Delete(first.RosterRef)
	ch.CreateErr = errors.New("discord down")

	_, err = pub.Publish(context.Background(), testEvent.ID)
	if !apperrors.IsCode(err, apperrors.CodeExternalChannel) {
		t.Fatalf("err = %v, want EXTERNAL_CHANNEL", err)
	}
	stored := store.event(testEvent.ID)
	if stored.AnnouncementRef != first.AnnouncementRef || stored.RosterRef != first.RosterRef {
		t.Fatalf("refs changed after failed push: %+v", stored)
	}
	if store.refWrites != 1 {
		t.Fatalf("ref writes = %d, want 1", store.refWrites)
	}
}

func TestPublishPartialFailureStoresNothing(t *testing.T) {
	t.Parallel()

	store := newFakeStore(testEvent)
	ch := &failingRosterChannel{Channel: channeltest.New()}
	pub := newTestPublisher(store, ch)

	_, err := pub.Publish(context.Background(), testEvent.ID)
	if !apperrors.IsCode(err, apperrors.CodeExternalChannel) {
		t.Fatalf("err = %v, want EXTERNAL_CHANNEL", err)
	}
	stored := store.event(testEvent.ID)
	if stored.AnnouncementRef != "" || stored.RosterRef != "" {
		t.Fatalf("partial refs stored: %+v", stored)
	}
}

func TestPublishEditErrorIsExternal(t *testing.T) {
	t.Parallel()

	event := testEvent
	event.AnnouncementRef = "msg-x"
	store := newFakeStore(event)
	ch := channeltest.New()
	ch.EditErr = errors.New("rate limited")
	pub := newTestPublisher(store, ch)

	_, err := pub.Publish(context.Background(), event.ID)
	if !apperrors.IsCode(err, apperrors.CodeExternalChannel) {
		t.Fatalf("err = %v, want EXTERNAL_CHANNEL", err)
	}
	if ch.Creates != 0 {
		t.Fatalf("creates = %d, want no fallback on non-missing edit error", ch.Creates)
	}
}

func TestPublishSkipsEventWithoutChannel(t *testing.T) {
	t.Parallel()

	event := testEvent
	event.ChannelRef = ""
	store := newFakeStore(event)
	ch := channeltest.New()
	pub := newTestPublisher(store, ch)

	outcome, err := pub.Publish(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !outcome.Skipped {
		t.Fatal("expected skipped outcome")
	}
	if ch.Creates != 0 || ch.EditCalls != 0 {
		t.Fatal("channel touched for event without channel")
	}
}

func TestPublishUnknownEvent(t *testing.T) {
	t.Parallel()

	pub := newTestPublisher(newFakeStore(), channeltest.New())
	_, err := pub.Publish(context.Background(), "missing")
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestPublishSerializesPerEvent(t *testing.T) {
	t.Parallel()

	store := newFakeStore(testEvent)
	ch := &countingChannel{Channel: channeltest.New()}
	pub := newTestPublisher(store, ch)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pub.Publish(context.Background(), testEvent.ID); err != nil {
				t.Errorf("publish: %v", err)
			}
		}()
	}
	wg.Wait()

	if ch.maxInFlight() != 1 {
		t.Fatalf("max concurrent pushes = %d, want 1", ch.maxInFlight())
	}
	if ch.Creates != 2 {
		t.Fatalf("creates = %d, want 2 (later pushes edit)", ch.Creates)
	}
	if pub.locks.size() != 0 {
		t.Fatalf("event locks leaked: %d", pub.locks.size())
	}
}

type failingRosterChannel struct {
	*channeltest.Channel
	calls int
}

func (c *failingRosterChannel) Create(ctx context.Context, channelRef string, msg channel.Message) (string, error) {
	c.calls++
	if c.calls > 1 {
		return "", errors.New("second surface rejected")
	}
	return c.Channel.Create(ctx, channelRef, msg)
}

type countingChannel struct {
	*channeltest.Channel
	mu       sync.Mutex
	inFlight int
	max      int
}

func (c *countingChannel) enter() {
	c.mu.Lock()
	c.inFlight++
	if c.inFlight > c.max {
		c.max = c.inFlight
	}
	c.mu.Unlock()
	time.Sleep(time.Millisecond)
}

func (c *countingChannel) leave() {
	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
}

func (c *countingChannel) maxInFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.max
}

func (c *countingChannel) Create(ctx context.Context, channelRef string, msg channel.Message) (string, error) {
	c.enter()
	defer c.leave()
	return c.Channel.Create(ctx, channelRef, msg)
}

func (c *countingChannel) Edit(ctx context.Context, channelRef, messageRef string, msg channel.Message) error {
	c.enter()
	defer c.leave()
	return c.Channel.Edit(ctx, channelRef, messageRef, msg)
}

func TestPublishAddsNoDeadlineToPushes(t *testing.T) {
	t.Parallel()

	store := newFakeStore(testEvent)
	ch := &slowChannel{Channel: channeltest.New(), delay: 20 * time.Millisecond}
	pub := newTestPublisher(store, ch)

	outcome, err := pub.Publish(context.Background(), testEvent.ID)
	if err != nil {
		t.Fatalf("publish through slow channel: %v", err)
	}
	if outcome.AnnouncementRef == "" || outcome.RosterRef == "" {
		t.Fatalf("outcome = %+v, want both refs", outcome)
	}
	if _, err := pub.Publish(context.Background(), testEvent.ID); err != nil {
		t.Fatalf("republish through slow channel: %v", err)
	}
	if got := ch.deadlines(); got != 0 {
		t.Fatalf("pushes saw %d context deadlines, want none", got)
	}
	if ch.Creates != 2 || ch.EditCalls != 2 {
		t.Fatalf("creates=%d edits=%d, want 2/2", ch.Creates, ch.EditCalls)
	}
}

func TestPublishHonorsCallerDeadline(t *testing.T) {
	t.Parallel()

	store := newFakeStore(testEvent)
	ch := &slowChannel{Channel: channeltest.New(), delay: time.Second}
	pub := newTestPublisher(store, ch)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := pub.Publish(ctx, testEvent.ID)
	if !apperrors.IsCode(err, apperrors.CodeExternalChannel) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want external channel deadline error", err)
	}
	if ref := store.event(testEvent.ID).AnnouncementRef; ref != "" {
		t.Fatalf("announcement ref = %q, want none stored", ref)
	}
}

// slowChannel delays every push and counts contexts that carry a deadline.
type slowChannel struct {
	*channeltest.Channel
	delay time.Duration

	mu       sync.Mutex
	deadline int
}

func (c *slowChannel) wait(ctx context.Context) error {
	c.mu.Lock()
	if _, ok := ctx.Deadline(); ok {
		c.deadline++
	}
	c.mu.Unlock()
	select {
	case <-time.After(c.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *slowChannel) deadlines() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline
}

func (c *slowChannel) Create(ctx context.Context, channelRef string, msg channel.Message) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	return c.Channel.Create(ctx, channelRef, msg)
}

func (c *slowChannel) Edit(ctx context.Context, channelRef, messageRef string, msg channel.Message) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.Channel.Edit(ctx, channelRef, messageRef, msg)
}

func TestRetireMarksMessagesCancelled(t *testing.T) {
	t.Parallel()

	store := newFakeStore(testEvent)
	ch := channeltest.New()
	pub := newTestPublisher(store, ch)

	outcome, err := pub.Publish(context.Background(), testEvent.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	ch.Delete(outcome.RosterRef)

	edited, err := pub.Retire(context.Background(), store.event(testEvent.ID))
	if err != nil {
		t.Fatalf("retire: %v", err)
	}
	if edited != 1 {
		t.Fatalf("edited = %d, want 1 (roster message was gone)", edited)
	}
	if ch.Creates != 2 {
		t.Fatalf("creates = %d, retire must not post new messages", ch.Creates)
	}
	posted, ok := ch.Get(outcome.AnnouncementRef)
	if !ok {
		t.Fatal("announcement message missing")
	}
	if posted.Message.Title != "Cancelled – Heroic Clear" || len(posted.Message.Buttons) != 0 {
		t.Fatalf("announcement = %+v, want cancelled without buttons", posted.Message)
	}
}

func TestRetireWithoutChannelIsNoop(t *testing.T) {
	t.Parallel()

	event := testEvent
	event.ChannelRef = ""
	ch := channeltest.New()
	pub := newTestPublisher(newFakeStore(event), ch)

	edited, err := pub.Retire(context.Background(), event)
	if err != nil || edited != 0 || ch.EditCalls != 0 {
		t.Fatalf("retire = %d, %v; edits = %d", edited, err, ch.EditCalls)
	}
}

func TestRetireEditErrorIsExternal(t *testing.T) {
	t.Parallel()

	event := testEvent
	event.AnnouncementRef = "msg-9"
	ch := channeltest.New()
	ch.EditErr = errors.New("discord unavailable")
	pub := newTestPublisher(newFakeStore(event), ch)

	_, err := pub.Retire(context.Background(), event)
	if !apperrors.IsCode(err, apperrors.CodeExternalChannel) {
		t.Fatalf("err = %v, want EXTERNAL_CHANNEL", err)
	}
}
