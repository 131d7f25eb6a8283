package responses

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getAlby/lnpay.go/lib/service"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestBadRequestErrorsNotAllowedForSentry(t *testing.T) {
	badRequest := echo.NewHTTPError(http.StatusBadRequest, "bad auth")
	assert.False(t, isErrAllowedForSentry(badRequest))
	assert.False(t, isErrAllowedForSentry(fmt.Errorf("%w: amount must be positive", service.ErrInvalidInput)))
	assert.False(t, isErrAllowedForSentry(service.ErrNotFound))
}

func TestServerErrorsAllowedForSentry(t *testing.T) {
	assert.True(t, isErrAllowedForSentry(echo.NewHTTPError(http.StatusBadGateway)))
	assert.True(t, isErrAllowedForSentry(errors.New("random error")))
}

func TestFromServiceError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{service.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: alice", service.ErrUnknownNode), http.StatusBadRequest},
		{service.ErrInvoiceExpired, http.StatusBadRequest},
		{fmt.Errorf("%w: bad page", service.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: connection refused", service.ErrNodeUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, FromServiceError(tt.err).HttpStatusCode, tt.err.Error())
	}
	assert.Equal(t, "invalid input: bad page", FromServiceError(fmt.Errorf("%w: bad page", service.ErrInvalidInput)).Message)
}

func TestHTTPErrorHandler(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v2/payments/abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorHandler(service.ErrNotFound, c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := ErrorResponse{}
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Error)
	assert.Equal(t, NotFoundError.Code, body.Code)
}
