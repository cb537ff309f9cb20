package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"mietrecht-backend/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	store, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "cases.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return store
}

func sampleSnapshots(topic string) (models.UserSnapshot, models.CaseSnapshot, models.BookingSnapshot) {
	return models.UserSnapshot{Name: "Erika Mustermann", Email: "erika@example.de", Phone: "0301234567", Address: "Hauptstr. 1, Berlin"},
		models.CaseSnapshot{Topic: topic, Risk: "mittel"},
		models.BookingSnapshot{Lawyer: "Dr. Schmidt", Type: "Video", Price: 89, Time: "Mo 10:00"}
}

func TestCreateAssignsSequentialIdentifiers(t *testing.T) {
	ctx := context.Background()
	cases := newTestStore(t).Cases()

	for _, want := range []string{"JM-1001", "JM-1002", "JM-1003"} {
		u, c, b := sampleSnapshots("Kaution")
		got, err := cases.Create(ctx, u, c, b, time.Now())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if got != want {
			t.Errorf("Create() = %q, want %q", got, want)
		}
	}
}

func TestCreateConcurrentIdentifiersAreDistinct(t *testing.T) {
	ctx := context.Background()
	cases := newTestStore(t).Cases()

	const n = 25
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []int64
	)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, c, b := sampleSnapshots("Lärm")
			id, err := cases.Create(ctx, u, c, b, time.Now())
			if err != nil {
				errs <- err
				return
			}
			seq, ok := models.ParseCaseID(id)
			if !ok {
				errs <- errors.New("unparsable id " + id)
				return
			}
			mu.Lock()
			ids = append(ids, seq)
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Create() error = %v", err)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, seq := range ids {
		if want := int64(models.FirstCaseSequence + i); seq != want {
			t.Fatalf("sorted ids[%d] = %d, want %d (ids %v)", i, seq, want, ids)
		}
	}
}

func TestCreateRoundTripsSnapshots(t *testing.T) {
	ctx := context.Background()
	cases := newTestStore(t).Cases()

	u, c, b := sampleSnapshots("Kaution")
	c.Analysis = &models.AnalysisResult{Summary: "s", Analysis: "a", Rulings: "r", Recommendations: []string{"x"}}
	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	id, err := cases.Create(ctx, u, c, b, ts)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := cases.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != id || got.Status != models.CaseStatusNew {
		t.Errorf("Get() = %s/%s, want %s/New", got.ID, got.Status, id)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, ts)
	}
	if got.User != u || got.Booking != b {
		t.Errorf("snapshots = %+v %+v, want %+v %+v", got.User, got.Booking, u, b)
	}
	if got.Case.Analysis == nil || got.Case.Analysis.Summary != "s" || len(got.Case.Analysis.Recommendations) != 1 {
		t.Errorf("Case.Analysis = %+v", got.Case.Analysis)
	}
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	cases := newTestStore(t).Cases()

	u, c, b := sampleSnapshots("Kaution")
	id, err := cases.Create(ctx, u, c, b, time.Now())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	changed, err := cases.SetStatus(ctx, id, models.CaseStatusPaid)
	if err != nil || !changed {
		t.Fatalf("first SetStatus() = %v, %v; want true, nil", changed, err)
	}

	changed, err = cases.SetStatus(ctx, id, models.CaseStatusPaid)
	if err != nil || changed {
		t.Fatalf("repeated SetStatus() = %v, %v; want false, nil", changed, err)
	}

	got, _ := cases.Get(ctx, id)
	if got.Status != models.CaseStatusPaid {
		t.Errorf("status = %s, want Paid", got.Status)
	}

	if _, err := cases.SetStatus(ctx, id, models.CaseStatus("Refunded")); err == nil {
		t.Error("SetStatus(unknown status) error = nil")
	}
}

func TestSetStatusUnknownCase(t *testing.T) {
	ctx := context.Background()
	cases := newTestStore(t).Cases()

	u, c, b := sampleSnapshots("Kaution")
	if _, err := cases.Create(ctx, u, c, b, time.Now()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	before, _ := cases.List(ctx)

	for _, id := range []string{"JM-9999", "JM-abc", "1001", ""} {
		changed, err := cases.SetStatus(ctx, id, models.CaseStatusPaid)
		if !errors.Is(err, ErrNotFound) || changed {
			t.Errorf("SetStatus(%q) = %v, %v; want false, ErrNotFound", id, changed, err)
		}
	}

	after, _ := cases.List(ctx)
	if len(after) != len(before) || after[0].Status != models.CaseStatusNew {
		t.Errorf("List() changed after unknown SetStatus: %+v", after)
	}
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	cases := newTestStore(t).Cases()

	empty, err := cases.List(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("List() on empty store = %v, %v", empty, err)
	}

	for _, topic := range []string{"Kaution", "Lärm", "Räumung"} {
		u, c, b := sampleSnapshots(topic)
		if _, err := cases.Create(ctx, u, c, b, time.Now()); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	list, err := cases.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"JM-1003", "JM-1002", "JM-1001"}
	for i, c := range list {
		if c.ID != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, c.ID, want[i])
		}
	}
	if list[0].Case.Topic != "Räumung" {
		t.Errorf("newest topic = %q, want Räumung", list[0].Case.Topic)
	}
}

func TestIdentifiersSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cases.db")

	open := func() *SQLiteStore {
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			t.Fatalf("OpenSQLite() error = %v", err)
		}
		if err := s.Migrate(ctx); err != nil {
			t.Fatalf("Migrate() error = %v", err)
		}
		return s
	}

	s := open()
	u, c, b := sampleSnapshots("Kaution")
	if _, err := s.Cases().Create(ctx, u, c, b, time.Now()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	s.Close()

	s = open()
	defer s.Close()
	id, err := s.Cases().Create(ctx, u, c, b, time.Now())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != "JM-1002" {
		t.Errorf("Create() after reopen = %q, want JM-1002", id)
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	users := newTestStore(t).Users()

	u := &models.User{Email: "anwalt@example.de", PasswordHash: "hash", Name: "Dr. Schmidt"}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if u.ID == 0 || u.CreatedAt.IsZero() {
		t.Errorf("Create() did not fill ID/CreatedAt: %+v", u)
	}

	dup := &models.User{Email: "ANWALT@example.de", PasswordHash: "x"}
	if err := users.Create(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate Create() error = %v, want ErrDuplicate", err)
	}

	got, err := users.GetByEmail(ctx, "Anwalt@Example.de")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != "hash" {
		t.Errorf("GetByEmail() = %+v", got)
	}

	if _, err := users.GetByEmail(ctx, "nobody@example.de"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByEmail(unknown) error = %v, want ErrNotFound", err)
	}
}
