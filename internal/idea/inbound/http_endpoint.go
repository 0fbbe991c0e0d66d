package inbound

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/shandysiswandi/ideabox/internal/idea/usecase"
	"github.com/shandysiswandi/ideabox/internal/pkg/router"
)

const headerIdempotencyKey = "Idempotency-Key"

type HTTPEndpoint struct {
	uc        uc
	maxMemory int64
}

// SubmitIdea accepts the idea form with an optional attachment.
// @Summary Submit idea
// @Tags Idea
// @Accept multipart/form-data
// @Produce json
// @Param Idempotency-Key header string false "Client generated submission key"
// @Param employee_id formData string true "Employee ID"
// @Param employee_name formData string false "Employee name"
// @Param idea_theme formData string false "Idea theme"
// @Param attachment formData file false "Supporting file"
// @Success 201 {object} router.successResponse{data=SubmitIdeaResponse} "Form submitted"
// @Failure 400 {object} router.errorResponse "Employee ID is required"
// @Failure 409 {object} router.errorResponse "Duplicate submission"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Error submitting form"
// @Router /api/v1/ideas [post]
func (h *HTTPEndpoint) SubmitIdea(r *router.Request) (any, error) {
	if err := r.ParseMultipart(h.maxMemory); err != nil {
		return nil, err
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	in := usecase.SubmitIdeaInput{
		IdempotencyKey:        r.Header.Get(headerIdempotencyKey),
		EmployeeName:          r.FormString("employee_name"),
		EmployeeID:            r.FormString("employee_id"),
		EmployeeFunction:      r.FormString("employee_function"),
		Location:              r.FormString("location"),
		IdeaTheme:             r.FormString("idea_theme"),
		Department:            r.FormString("department"),
		BenefitsCategory:      r.FormString("benefits_category"),
		IdeaDescription:       r.FormString("idea_description"),
		ImpactedProcess:       r.FormString("impacted_process"),
		ExpectedBenefitsValue: r.FormString("expected_benefits_value"),
	}

	file, err := r.OptionalFile("attachment")
	if err != nil {
		return nil, err
	}
	if file != nil {
		defer file.Close()
		in.Attachment = &usecase.AttachmentInput{
			Body:        file.File,
			Filename:    file.Filename,
			Size:        file.Size,
			ContentType: file.ContentType,
		}
	}

	resp, err := h.uc.SubmitIdea(r.Context(), in)
	if err != nil {
		return nil, err
	}

	return SubmitIdeaResponse{ID: resp.ID, Attachment: resp.Attachment}, nil
}

// ListIdeas returns submissions newest first.
// @Summary List ideas
// @Tags Idea
// @Produce json
// @Param employee_id query string false "Only this employee's submissions"
// @Param page query int false "Page number, starting at 1"
// @Param size query int false "Page size, 1 to 100"
// @Success 200 {object} router.successResponse{data=ListIdeasResponse} "Submissions"
// @Failure 400 {object} router.errorResponse "Invalid query"
// @Failure 500 {object} router.errorResponse "Error fetching submissions"
// @Router /api/v1/ideas [get]
func (h *HTTPEndpoint) ListIdeas(r *router.Request) (any, error) {
	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}

	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ListIdeas(r.Context(), usecase.ListIdeasInput{
		EmployeeID: r.GetQuery("employee_id"),
		Page:       page,
		Size:       size,
	})
	if err != nil {
		return nil, err
	}

	ideas := make([]Idea, 0, len(resp.Ideas))
	for _, i := range resp.Ideas {
		ideas = append(ideas, Idea{
			ID:                    i.ID,
			EmployeeName:          i.EmployeeName,
			EmployeeID:            i.EmployeeID,
			EmployeeFunction:      i.EmployeeFunction,
			Location:              i.Location,
			IdeaTheme:             i.IdeaTheme,
			Department:            i.Department,
			BenefitsCategory:      i.BenefitsCategory,
			IdeaDescription:       i.IdeaDescription,
			ImpactedProcess:       i.ImpactedProcess,
			ExpectedBenefitsValue: i.ExpectedBenefitsValue,
			Attachment:            i.Attachment,
			SubmittedAt:           i.SubmittedAt,
		})
	}

	return ListIdeasResponse{
		Ideas: ideas,
		total: resp.Total,
		size:  resp.Size,
		page:  resp.Page,
	}, nil
}

// DownloadAttachment streams a stored attachment.
// @Summary Download attachment
// @Tags Idea
// @Produce octet-stream
// @Param key path string true "Attachment key"
// @Success 200 {file} binary
// @Failure 404 {object} router.errorResponse "Attachment not found"
// @Router /api/v1/ideas/attachments/{key} [get]
func (h *HTTPEndpoint) DownloadAttachment(w http.ResponseWriter, r *router.Request) error {
	resp, err := h.uc.GetAttachment(r.Context(), usecase.GetAttachmentInput{Key: r.GetParam("key")})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", resp.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": resp.Key}))
	if resp.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(resp.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	_, err = io.Copy(w, resp.Body)
	return err
}
