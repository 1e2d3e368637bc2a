package responses

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/logger"
	"github.com/luxemarket/storefront-backend/pkg/types"
)

func TestWriteSuccessWithNotices(t *testing.T) {
	w := httptest.NewRecorder()
	WriteWithNotices(w, http.StatusCreated, map[string]string{"hello": "world"}, []types.Notice{
		{Title: "Added to cart", Severity: "success"},
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"hello":"world"},"notices":[{"title":"Added to cart","severity":"success"}]}`, w.Body.String())
}

func TestWriteSuccessOmitsEmptyNotices(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, []int{1})
	assert.JSONEq(t, `{"data":[1]}`, w.Body.String())
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]any{"field": "email"})
	WriteError(t.Context(), nil, w, err)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, string(pkgerrors.CodeValidation), body.Error.Code)
	assert.Equal(t, "bad input", body.Error.Message)
	assert.Equal(t, map[string]any{"field": "email"}, body.Error.Details)
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(t.Context(), nil, w, errors.New("pq: connection refused at 10.0.0.3"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, string(pkgerrors.CodeInternal), body.Error.Code)
	assert.Equal(t, "internal server error", body.Error.Message)
	assert.Nil(t, body.Error.Details)
}

func TestWriteErrorUsesPublicMessageForDependency(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(t.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "redis timeout on lm:cart"))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "dependency unavailable")
	assert.NotContains(t, w.Body.String(), "redis")
}

func TestWriteErrorPassesClientMessages(t *testing.T) {
	for _, code := range []pkgerrors.Code{pkgerrors.CodeNotFound, pkgerrors.CodeStateConflict, pkgerrors.CodeRateLimit} {
		w := httptest.NewRecorder()
		WriteErrorWithNotices(t.Context(), nil, w, pkgerrors.New(code, "custom text"), []types.Notice{{Title: "t", Severity: "error"}})

		var body types.ErrorEnvelope
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "custom text", body.Error.Message, code)
		assert.Len(t, body.Notices, 1)
	}

	w := httptest.NewRecorder()
	WriteError(t.Context(), nil, w, pkgerrors.New(pkgerrors.CodeForbidden, ""))
	assert.Contains(t, w.Body.String(), "access denied")
}

func TestWriteErrorLogsRejectionsAsWarnings(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{Output: &buf, Format: logger.FormatJSON})
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad step").WithDetails(map[string]any{"step": "shipping"})

	WriteError(t.Context(), logg, httptest.NewRecorder(), err)
	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"step":"shipping"`)
	assert.Contains(t, out, "request.rejected")
}
