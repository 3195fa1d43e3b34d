package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/matzehuels/bumper/pkg/deps"
	bumperrors "github.com/matzehuels/bumper/pkg/errors"
	"github.com/matzehuels/bumper/pkg/manifest"
	"github.com/matzehuels/bumper/pkg/pipeline"
)

type errorBody struct {
	Code    bumperrors.Code `json:"code"`
	Message string          `json:"message"`
}

type errorResponse struct {
	ID    string    `json:"id,omitempty"`
	Error errorBody `json:"error"`
}

type changeResponse struct {
	Name     string `json:"name"`
	Declared string `json:"declared"`
	Latest   string `json:"latest"`
	Target   string `json:"target"`
}

type failureResponse struct {
	Name  string    `json:"name"`
	Error errorBody `json:"error"`
}

type sectionResponse struct {
	Declared   int               `json:"declared"`
	Changes    []changeResponse  `json:"changes"`
	Failures   []failureResponse `json:"failures,omitempty"`
	Report     string            `json:"report,omitempty"`
	Error      *errorBody        `json:"error,omitempty"`
	DurationMS int64             `json:"duration_ms"`
}

type checkResponse struct {
	ID       string                     `json:"id"`
	Sections map[string]sectionResponse `json:"sections"`
	Changes  int                        `json:"changes"`
	Updated  *int                       `json:"updated,omitempty"`
	Manifest json.RawMessage            `json:"manifest,omitempty"`
}

type checkQuery struct {
	write bool
	opts  pipeline.Options
}

func parseQuery(r *http.Request) (checkQuery, error) {
	q := r.URL.Query()
	var out checkQuery
	var err error

	boolParam := func(name string, dst *bool) {
		if err != nil || !q.Has(name) {
			return
		}
		v, perr := strconv.ParseBool(q.Get(name))
		if perr != nil {
			err = bumperrors.New(bumperrors.ErrCodeInvalidInput, "%s: want a boolean, got %q", name, q.Get(name))
			return
		}
		*dst = v
	}
	boolParam("write", &out.write)
	boolParam("keep_going", &out.opts.KeepGoing)
	boolParam("refresh", &out.opts.Refresh)
	if err != nil {
		return out, err
	}

	if q.Has("concurrency") {
		n, perr := strconv.Atoi(q.Get("concurrency"))
		if perr != nil {
			return out, bumperrors.New(bumperrors.ErrCodeInvalidInput, "concurrency: want an integer, got %q", q.Get("concurrency"))
		}
		if n <= 0 {
			return out, bumperrors.New(bumperrors.ErrCodeInvalidConfig, "concurrency must be positive, got %d", n)
		}
		out.opts.Concurrency = n
	}
	out.opts.Only = q.Get("only")
	return out, nil
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	logger := s.logger.With("id", id)

	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, id, err)
		return
	}
	if err := q.opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, http.StatusBadRequest, id, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, id,
				bumperrors.New(bumperrors.ErrCodeInvalidInput, "manifest exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, id, bumperrors.Wrap(bumperrors.ErrCodeInvalidInput, err, "read body"))
		return
	}

	doc, err := manifest.Parse(body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, id, err)
		return
	}
	decl, err := manifest.DeclaredSections(doc)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, id, err)
		return
	}

	q.opts.Logger = logger
	result, err := s.runner.Check(r.Context(), decl, q.opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, id, err)
		return
	}

	resp := checkResponse{
		ID:       id,
		Sections: make(map[string]sectionResponse, len(result.Sections)),
		Changes:  result.ChangeCount(),
	}
	for _, sec := range result.Sections {
		resp.Sections[sec.Section] = newSectionResponse(sec)
	}

	if q.write {
		n, err := s.runner.Apply(r.Context(), doc, result)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, id, err)
			return
		}
		out, err := doc.Bytes()
		if err != nil {
			writeError(w, http.StatusInternalServerError, id, err)
			return
		}
		resp.Updated = &n
		resp.Manifest = out
	}

	if err := result.Err(); err != nil {
		logger.Warn("check finished with failed sections", "error", err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func newSectionResponse(sec pipeline.SectionResult) sectionResponse {
	out := sectionResponse{
		Declared:   sec.Declared,
		Changes:    []changeResponse{},
		DurationMS: sec.Duration.Milliseconds(),
	}
	if !sec.OK() {
		body := newErrorBody(sec.Err)
		out.Error = &body
		return out
	}
	for _, c := range sec.ChangeSet.Changes {
		out.Changes = append(out.Changes, changeResponse{
			Name:     c.Name,
			Declared: c.Declared.String(),
			Latest:   c.Latest,
			Target:   c.Target().String(),
		})
	}
	for _, f := range sec.ChangeSet.Failures {
		out.Failures = append(out.Failures, failureResponse{Name: f.Name, Error: newErrorBody(f.Err)})
	}
	out.Report = deps.Render(sec.ChangeSet)
	return out
}

func newErrorBody(err error) errorBody {
	code := bumperrors.GetCode(err)
	if code == "" {
		code = bumperrors.ErrCodeInternal
	}
	return errorBody{Code: code, Message: err.Error()}
}

func writeError(w http.ResponseWriter, status int, id string, err error) {
	writeJSON(w, status, errorResponse{ID: id, Error: newErrorBody(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
