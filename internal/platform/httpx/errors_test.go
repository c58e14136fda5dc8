package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusForWrappedSentinels(t *testing.T) {
	notFound := NewError(ErrNotFound, "ledger not found")
	require.Equal(t, http.StatusNotFound, StatusFor(fmt.Errorf("load: %w", notFound)))
	require.Equal(t, http.StatusConflict, StatusFor(NewError(ErrDuplicate, "dup")))
	require.Equal(t, http.StatusConflict, StatusFor(ErrConflict))
	require.Equal(t, http.StatusBadRequest, StatusFor(NewError(ErrValidation, "bad")))
	require.Equal(t, http.StatusUnauthorized, StatusFor(ErrUnauthorized))
	require.Equal(t, http.StatusForbidden, StatusFor(ErrForbidden))
	require.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("db down")))
	require.Equal(t, "ledger not found", notFound.Error())
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Empty(t, body.Detail)
	require.Equal(t, "Something went wrong, please try again", UserMessage(errors.New("x")))
}

func TestRespondErrorValidation(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, NewError(ErrValidation, "qualityName is required"))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "qualityName is required", body.Detail)
	require.Equal(t, "Validation Failed", body.Title)
}
