package router

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/ideabox/internal/pkg/goerror"
)

// DefaultMultipartMemory is the in-memory budget for multipart parsing;
// larger parts spill to temporary files.
const DefaultMultipartMemory = 8 << 20

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	// Request is the underlying http.Request.
	*http.Request
}

// UploadedFile is a single multipart file part.
type UploadedFile struct {
	File        multipart.File
	Filename    string
	Size        int64
	ContentType string
}

// Close releases the underlying file handle.
func (f *UploadedFile) Close() error {
	if f == nil || f.File == nil {
		return nil
	}
	return f.File.Close()
}

// GetParam reads a path parameter from the request context (as stored by httprouter).
func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func (r *Request) GetQueryInt32(key string) (int32, error) {
	queryValue := r.GetQuery(key)
	if queryValue == "" {
		return 0, nil
	}

	value, err := strconv.ParseInt(queryValue, 10, 32)
	if err != nil {
		return 0, goerror.NewInvalidFormat("Invalid query " + key)
	}

	return int32(value), nil
}

// DecodeBody decodes the JSON body into dst.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return goerror.NewInvalidFormat()
	}

	return nil
}

// ParseMultipart parses a multipart/form-data body so FormValue and
// OptionalFile can be used.
func (r *Request) ParseMultipart(maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return goerror.NewInvalidFormat("Invalid request content-type")
	}
	if maxMemory <= 0 {
		maxMemory = DefaultMultipartMemory
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return goerror.NewInvalidFormat()
	}
	return nil
}

// FormString returns the trimmed multipart/urlencoded field value.
func (r *Request) FormString(key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// OptionalFile returns the file uploaded under name, or nil when the field
// is absent. ParseMultipart must be called first.
func (r *Request) OptionalFile(name string) (*UploadedFile, error) {
	file, header, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, goerror.NewInvalidFormat("Invalid file " + name)
	}

	return &UploadedFile{
		File:        file,
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}
