package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fincal/internal/core"
	"fincal/internal/ledger"
	"fincal/internal/log"
	"fincal/internal/report"
)

// ResponseBuilder assembles a response: status, headers and a body that is
// either JSON or raw bytes.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       []byte
	jsonBody   any
	isJSON     bool
}

// NewResponse starts a 200 response.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{statusCode: http.StatusOK, headers: make(map[string]string)}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets v as the body. Nil slices are the caller's concern.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.jsonBody = v
	b.isJSON = true
	return b
}

// Body sets a raw body with the given content type.
func (b *ResponseBuilder) Body(contentType string, content []byte) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.body = content
	b.isJSON = false
	return b
}

// Attachment asks the client to save the body as filename.
func (b *ResponseBuilder) Attachment(filename string) *ResponseBuilder {
	return b.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
}

// Write sends the response. Encoding failures after the header is out can
// only be logged.
func (b *ResponseBuilder) Write(w http.ResponseWriter, r *http.Request) {
	var payload []byte
	if b.isJSON {
		var err error
		payload, err = json.Marshal(b.jsonBody)
		if err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "encode response", log.FieldError, err.Error())
			b.statusCode = http.StatusInternalServerError
			payload = []byte(`{"error":"internal error","level":"error"}`)
		}
		payload = append(payload, '\n')
		b.headers["Content-Type"] = "application/json; charset=utf-8"
	} else {
		payload = b.body
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(payload) > 0 && r.Method != http.MethodHead {
		_, _ = w.Write(payload)
	}
}

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Error string       `json:"error"`
	Level ledger.Level `json:"level"`
}

// StatusOf maps the ledger error taxonomy onto HTTP statuses.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidImport), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrCategoryExists), errors.Is(err, core.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrCategoryNotFound),
		errors.Is(err, report.ErrUnknownReport):
		return http.StatusNotFound
	case errors.Is(err, core.ErrSameCategory), core.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrPersist):
		return http.StatusInsufficientStorage
	case errors.Is(err, core.ErrNotLoaded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ErrorResponse builds the error reply for err. Server-side failures hide
// their details behind a generic message.
func ErrorResponse(err error) *ResponseBuilder {
	status := StatusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return NewResponse().Status(status).JSON(ErrorBody{Error: msg, Level: ledger.LevelOf(err)})
}

// BadRequest replies 400 with a plain message.
func BadRequest(message string) *ResponseBuilder {
	return NewResponse().Status(http.StatusBadRequest).JSON(ErrorBody{Error: message, Level: ledger.LevelError})
}

// writeError logs err at a level matching its status and writes the reply.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger := log.FromContext(r.Context())
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			log.FieldOperation, op, log.FieldError, err.Error(), log.FieldStatusCode, status)
	} else {
		logger.DebugContext(r.Context(), "request rejected",
			log.FieldOperation, op, log.FieldError, err.Error(), log.FieldStatusCode, status)
	}
	ErrorResponse(err).Write(w, r)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	NewResponse().Status(status).JSON(v).Write(w, r)
}
