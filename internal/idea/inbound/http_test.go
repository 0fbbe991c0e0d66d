package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/ideabox/internal/idea/entity"
	"github.com/shandysiswandi/ideabox/internal/idea/usecase"
	"github.com/shandysiswandi/ideabox/internal/pkg/config"
	"github.com/shandysiswandi/ideabox/internal/pkg/goerror"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"github.com/shandysiswandi/ideabox/internal/pkg/router"
	"github.com/shandysiswandi/ideabox/internal/pkg/uid"
)

type successEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

type errorEnvelope struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error"`
}

type fakeUsecase struct {
	submitErr  error
	lastSubmit usecase.SubmitIdeaInput
	attachment string

	listOut  *usecase.ListIdeasOutput
	lastList usecase.ListIdeasInput

	getOut *usecase.GetAttachmentOutput
	getErr error
}

func (f *fakeUsecase) SubmitIdea(_ context.Context, in usecase.SubmitIdeaInput) (*usecase.SubmitIdeaOutput, error) {
	f.lastSubmit = in
	if in.Attachment != nil {
		b, _ := io.ReadAll(in.Attachment.Body)
		f.attachment = string(b)
	}
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &usecase.SubmitIdeaOutput{ID: "idea-1"}, nil
}

func (f *fakeUsecase) ListIdeas(_ context.Context, in usecase.ListIdeasInput) (*usecase.ListIdeasOutput, error) {
	f.lastList = in
	return f.listOut, nil
}

func (f *fakeUsecase) GetAttachment(_ context.Context, _ usecase.GetAttachmentInput) (*usecase.GetAttachmentOutput, error) {
	return f.getOut, f.getErr
}

func newTestServer(t *testing.T, uc uc) http.Handler {
	t.Helper()
	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: ideabox\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	r := router.NewRouter(router.Config{Config: cfg, UUID: uid.NewUUID(), Instrument: instrument.NewNoop()})
	RegisterHTTPEndpoint(r, uc, router.DefaultMultipartMemory)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("attachment", filename)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

func TestSubmitIdeaEndpoint(t *testing.T) {
	t.Run("created with attachment", func(t *testing.T) {
		// Arrange
		fake := &fakeUsecase{}
		srv := newTestServer(t, fake)
		body, ct := multipartBody(t, map[string]string{"employee_id": "E42", "idea_theme": "Cost"}, "plan.txt", "draft")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ideas", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Idempotency-Key", "form-1")
		rec := httptest.NewRecorder()

		// Act
		srv.ServeHTTP(rec, req)

		// Assert
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var env successEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Message != "Form Submitted Successfully!" {
			t.Fatalf("message = %q", env.Message)
		}
		in := fake.lastSubmit
		if in.EmployeeID != "E42" || in.IdeaTheme != "Cost" || in.IdempotencyKey != "form-1" {
			t.Fatalf("usecase input = %+v", in)
		}
		if in.Attachment == nil || in.Attachment.Filename != "plan.txt" || in.Attachment.Size != 5 || fake.attachment != "draft" {
			t.Fatalf("attachment = %+v, content %q", in.Attachment, fake.attachment)
		}
	})

	t.Run("without attachment", func(t *testing.T) {
		// Arrange
		fake := &fakeUsecase{}
		srv := newTestServer(t, fake)
		body, ct := multipartBody(t, map[string]string{"employee_id": "E42"}, "", "")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ideas", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()

		// Act
		srv.ServeHTTP(rec, req)

		// Assert
		if rec.Code != http.StatusCreated || fake.lastSubmit.Attachment != nil {
			t.Fatalf("status = %d, attachment = %+v", rec.Code, fake.lastSubmit.Attachment)
		}
	})

	errorCases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "missing employee id", err: goerror.WrapBusiness(entity.ErrEmployeeIDRequired, "Employee ID is required", goerror.CodeBadRequest), wantStatus: http.StatusBadRequest, wantMsg: "Employee ID is required"},
		{name: "duplicate", err: goerror.NewBusiness("Form already submitted", goerror.CodeConflict), wantStatus: http.StatusConflict, wantMsg: "Form already submitted"},
		{name: "server", err: goerror.WrapServer(io.ErrUnexpectedEOF, "Error submitting form"), wantStatus: http.StatusInternalServerError, wantMsg: "Error submitting form"},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			srv := newTestServer(t, &fakeUsecase{submitErr: tt.err})
			body, ct := multipartBody(t, map[string]string{"employee_name": "Asha"}, "", "")
			req := httptest.NewRequest(http.MethodPost, "/api/v1/ideas", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()

			// Act
			srv.ServeHTTP(rec, req)

			// Assert
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var env errorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Message != tt.wantMsg {
				t.Fatalf("message = %q, want %q", env.Message, tt.wantMsg)
			}
		})
	}

	t.Run("json body is rejected", func(t *testing.T) {
		// Arrange
		srv := newTestServer(t, &fakeUsecase{})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ideas", strings.NewReader(`{"employee_id":"E1"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		// Act
		srv.ServeHTTP(rec, req)

		// Assert
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestListIdeasEndpoint(t *testing.T) {
	// Arrange
	key := "E1_a.pdf"
	fake := &fakeUsecase{listOut: &usecase.ListIdeasOutput{
		Page:  2,
		Size:  1,
		Total: 3,
		Ideas: []entity.Idea{{ID: "x", EmployeeID: "E1", Attachment: &key, SubmittedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}},
	}}
	srv := newTestServer(t, fake)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ideas?page=2&size=1&employee_id=E1", nil)
	rec := httptest.NewRecorder()

	// Act
	srv.ServeHTTP(rec, req)

	// Assert
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var env successEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var data ListIdeasResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Ideas) != 1 || data.Ideas[0].ID != "x" || *data.Ideas[0].Attachment != key {
		t.Fatalf("ideas = %+v", data.Ideas)
	}
	if env.Meta["total"] != float64(3) || env.Meta["page"] != float64(2) || env.Meta["size"] != float64(1) {
		t.Fatalf("meta = %v", env.Meta)
	}
	if fake.lastList.EmployeeID != "E1" || fake.lastList.Page != 2 || fake.lastList.Size != 1 {
		t.Fatalf("usecase input = %+v", fake.lastList)
	}
}

func TestListIdeasEndpointBadQuery(t *testing.T) {
	// Arrange
	srv := newTestServer(t, &fakeUsecase{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ideas?page=abc", nil)
	rec := httptest.NewRecorder()

	// Act
	srv.ServeHTTP(rec, req)

	// Assert
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDownloadAttachmentEndpoint(t *testing.T) {
	t.Run("streams the object", func(t *testing.T) {
		// Arrange
		srv := newTestServer(t, &fakeUsecase{getOut: &usecase.GetAttachmentOutput{
			Body:        io.NopCloser(strings.NewReader("hello")),
			Key:         "E1_note.txt",
			ContentType: "text/plain",
			Size:        5,
		}})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ideas/attachments/E1_note.txt", nil)
		rec := httptest.NewRecorder()

		// Act
		srv.ServeHTTP(rec, req)

		// Assert
		if rec.Code != http.StatusOK || rec.Body.String() != "hello" {
			t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("Content-Type") != "text/plain" || rec.Header().Get("Content-Length") != "5" {
			t.Fatalf("headers = %v", rec.Header())
		}
		if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=E1_note.txt" {
			t.Fatalf("content disposition = %q", got)
		}
	})

	t.Run("not found", func(t *testing.T) {
		// Arrange
		srv := newTestServer(t, &fakeUsecase{getErr: goerror.WrapBusiness(entity.ErrAttachmentNotFound, "Attachment not found", goerror.CodeNotFound)})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ideas/attachments/missing.txt", nil)
		rec := httptest.NewRecorder()

		// Act
		srv.ServeHTTP(rec, req)

		// Assert
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		var env errorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Message != "Attachment not found" {
			t.Fatalf("message = %q", env.Message)
		}
	})
}
