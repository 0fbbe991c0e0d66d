package usecase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/ideabox/internal/idea/entity"
	"github.com/shandysiswandi/ideabox/internal/pkg/clock"
	"github.com/shandysiswandi/ideabox/internal/pkg/config"
	"github.com/shandysiswandi/ideabox/internal/pkg/goerror"
	"github.com/shandysiswandi/ideabox/internal/pkg/idempotency"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"github.com/shandysiswandi/ideabox/internal/pkg/storage"
	"github.com/shandysiswandi/ideabox/internal/pkg/uid"
	"github.com/shandysiswandi/ideabox/internal/pkg/validator"
)

type fakeRepo struct {
	mu        sync.Mutex
	ideas     []entity.Idea
	createErr error
	lastList  entity.ListFilter
}

func (f *fakeRepo) CreateIdea(_ context.Context, idea entity.Idea) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.ideas = append(f.ideas, idea)
	return nil
}

func (f *fakeRepo) ListIdeas(_ context.Context, filter entity.ListFilter) ([]entity.Idea, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = filter
	out := make([]entity.Idea, 0, len(f.ideas))
	for i := len(f.ideas) - 1; i >= 0; i-- {
		out = append(out, f.ideas[i])
	}
	return out, int64(len(out)), nil
}

type fakePublisher struct {
	events []IdeaSubmittedEvent
}

func (f *fakePublisher) PublishIdeaSubmitted(_ context.Context, msg IdeaSubmittedEvent) error {
	f.events = append(f.events, msg)
	return nil
}

type fakeIdempotency struct {
	mu        sync.Mutex
	completed map[string]bool
}

func (f *fakeIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	f.mu.Lock()
	if f.completed[key] {
		f.mu.Unlock()
		return idempotency.ErrAlreadyCompleted
	}
	f.mu.Unlock()

	if err := fn(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed[key] = true
	return nil
}

type fixture struct {
	uc      *Usecase
	repo    *fakeRepo
	pub     *fakePublisher
	storage *storage.LocalAdapter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  idea:
    attachment_max_size_bytes: 1024
`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	stg, err := storage.NewLocal(storage.LocalOptions{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	t.Cleanup(func() { _ = stg.Close() })

	f := &fixture{repo: &fakeRepo{}, pub: &fakePublisher{}, storage: stg}
	f.uc = New(Dependency{
		RepoDB:        f.repo,
		RepoMessaging: f.pub,
		Storage:       stg,
		Idempotency:   &fakeIdempotency{completed: map[string]bool{}},
		Validator:     v,
		Config:        cfg,
		UUID:          uid.NewUUID(),
		Clock:         clock.NewManual(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)),
		Instrument:    instrument.NewNoop(),
	})
	return f
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error %v is not a *goerror.Error", err)
	}
	return gerr.StatusCode()
}

func TestSubmitIdeaWithAttachment(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()

	// Act
	out, err := f.uc.SubmitIdea(ctx, SubmitIdeaInput{
		EmployeeName: "Asha",
		EmployeeID:   " E42 ",
		IdeaTheme:    "Cost",
		Attachment: &AttachmentInput{
			Body:        strings.NewReader("%PDF-1.4"),
			Filename:    "cost  plan.pdf",
			Size:        8,
			ContentType: "application/pdf",
		},
	})

	// Assert
	if err != nil {
		t.Fatalf("SubmitIdea() error = %v", err)
	}
	if out.Attachment == nil || *out.Attachment != "E42_cost_plan.pdf" {
		t.Fatalf("attachment = %v", out.Attachment)
	}
	if len(f.repo.ideas) != 1 || f.repo.ideas[0].EmployeeID != "E42" || f.repo.ideas[0].ID != out.ID {
		t.Fatalf("stored ideas = %+v", f.repo.ideas)
	}
	rc, info, err := f.storage.GetObject(ctx, "", "E42_cost_plan.pdf")
	if err != nil {
		t.Fatalf("GetObject() error = %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "%PDF-1.4" || info.Size != 8 {
		t.Fatalf("stored object = %q (%d bytes)", body, info.Size)
	}
	if len(f.pub.events) != 1 || f.pub.events[0].Attachment != "E42_cost_plan.pdf" {
		t.Fatalf("events = %+v", f.pub.events)
	}
}

func TestSubmitIdeaWithoutAttachment(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	out, err := f.uc.SubmitIdea(context.Background(), SubmitIdeaInput{EmployeeID: "E43"})

	// Assert
	if err != nil {
		t.Fatalf("SubmitIdea() error = %v", err)
	}
	if out.Attachment != nil || f.repo.ideas[0].Attachment != nil {
		t.Fatalf("attachment should be nil")
	}
}

func TestSubmitIdeaRequiresEmployeeID(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	_, err := f.uc.SubmitIdea(context.Background(), SubmitIdeaInput{EmployeeName: "No Id", EmployeeID: "   "})

	// Assert
	if !errors.Is(err, entity.ErrEmployeeIDRequired) {
		t.Fatalf("SubmitIdea() error = %v, want ErrEmployeeIDRequired", err)
	}
	if got := statusOf(t, err); got != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", got)
	}
	if len(f.repo.ideas) != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestSubmitIdeaRejectsOversizedAttachment(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	_, err := f.uc.SubmitIdea(context.Background(), SubmitIdeaInput{
		EmployeeID: "E44",
		Attachment: &AttachmentInput{Body: strings.NewReader("x"), Filename: "big.bin", Size: 4096},
	})

	// Assert
	if got := statusOf(t, err); got != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", got)
	}
}

func TestSubmitIdeaIdempotencyKey(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	in := SubmitIdeaInput{EmployeeID: "E45", IdempotencyKey: "form-1"}

	// Act
	_, first := f.uc.SubmitIdea(ctx, in)
	_, second := f.uc.SubmitIdea(ctx, in)

	// Assert
	if first != nil {
		t.Fatalf("first SubmitIdea() error = %v", first)
	}
	if got := statusOf(t, second); got != http.StatusConflict {
		t.Fatalf("second status = %d, want 409", got)
	}
	if len(f.repo.ideas) != 1 {
		t.Fatalf("ideas stored = %d, want 1", len(f.repo.ideas))
	}
}

func TestSubmitIdeaRemovesAttachmentWhenRecordFails(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.repo.createErr = errors.New("mongo unavailable")
	ctx := context.Background()

	// Act
	_, err := f.uc.SubmitIdea(ctx, SubmitIdeaInput{
		EmployeeID: "E46",
		Attachment: &AttachmentInput{Body: strings.NewReader("abc"), Filename: "a.txt", Size: 3},
	})

	// Assert
	if got := statusOf(t, err); got != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", got)
	}
	if _, err := f.storage.StatObject(ctx, "", "E46_a.txt"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("orphan attachment left behind: %v", err)
	}
}

func TestListIdeasNewestFirstWithPaging(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"E1", "E2", "E3"} {
		if _, err := f.uc.SubmitIdea(ctx, SubmitIdeaInput{EmployeeID: id}); err != nil {
			t.Fatalf("SubmitIdea(%s) error = %v", id, err)
		}
	}

	// Act
	out, err := f.uc.ListIdeas(ctx, ListIdeasInput{Page: 2, Size: 500})

	// Assert
	if err != nil {
		t.Fatalf("ListIdeas() error = %v", err)
	}
	if out.Size != 20 || out.Page != 2 || out.Total != 3 {
		t.Fatalf("page = %d, size = %d, total = %d", out.Page, out.Size, out.Total)
	}
	if f.repo.lastList.Offset != 20 || f.repo.lastList.Limit != 20 {
		t.Fatalf("filter = %+v", f.repo.lastList)
	}
	if out.Ideas[0].EmployeeID != "E3" {
		t.Fatalf("first idea = %s, want newest E3", out.Ideas[0].EmployeeID)
	}
}

func TestGetAttachment(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.uc.SubmitIdea(ctx, SubmitIdeaInput{
		EmployeeID: "E47",
		Attachment: &AttachmentInput{Body: strings.NewReader("hello"), Filename: "note.txt", Size: 5, ContentType: "text/plain"},
	}); err != nil {
		t.Fatalf("SubmitIdea() error = %v", err)
	}

	// Act
	out, err := f.uc.GetAttachment(ctx, GetAttachmentInput{Key: "E47_note.txt"})
	_, missing := f.uc.GetAttachment(ctx, GetAttachmentInput{Key: "E47_none.txt"})
	_, escape := f.uc.GetAttachment(ctx, GetAttachmentInput{Key: "../secret"})

	// Assert
	if err != nil {
		t.Fatalf("GetAttachment() error = %v", err)
	}
	defer out.Body.Close()
	body, _ := io.ReadAll(out.Body)
	if string(body) != "hello" || out.Size != 5 || !strings.HasPrefix(out.ContentType, "text/plain") {
		t.Fatalf("attachment = %q, size %d, type %q", body, out.Size, out.ContentType)
	}
	for name, err := range map[string]error{"missing": missing, "escape": escape} {
		if got := statusOf(t, err); got != http.StatusNotFound {
			t.Fatalf("%s status = %d, want 404", name, got)
		}
	}
}
