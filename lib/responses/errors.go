package responses

import (
	"errors"
	"net/http"

	"github.com/getAlby/lnpay.go/lib/service"
	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error          bool   `json:"error"`
	Code           int    `json:"code"`
	Message        string `json:"message"`
	HttpStatusCode int    `json:"-"`
}

var GeneralServerError = ErrorResponse{
	Error:          true,
	Code:           6,
	Message:        "Something went wrong. Please try again later",
	HttpStatusCode: 500,
}

var BadArgumentsError = ErrorResponse{
	Error:          true,
	Code:           8,
	Message:        "Bad arguments",
	HttpStatusCode: 400,
}

var BadAuthError = ErrorResponse{
	Error:          true,
	Code:           1,
	Message:        "bad auth",
	HttpStatusCode: 401,
}

var InvoiceExpiredError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "invoice expired",
	HttpStatusCode: 400,
}

var UnknownNodeError = ErrorResponse{
	Error:          true,
	Code:           3,
	Message:        "unknown node",
	HttpStatusCode: 400,
}

var InvalidIdempotencyKeyError = ErrorResponse{
	Error:          true,
	Code:           4,
	Message:        "invalid Idempotency-Key header",
	HttpStatusCode: 400,
}

var NotFoundError = ErrorResponse{
	Error:          true,
	Code:           5,
	Message:        "not found",
	HttpStatusCode: 404,
}

var NodeUnavailableError = ErrorResponse{
	Error:          true,
	Code:           7,
	Message:        "lightning node unavailable. Please try again later",
	HttpStatusCode: 503,
}

// FromServiceError maps the service sentinel errors to a response. Anything
// unknown becomes GeneralServerError.
func FromServiceError(err error) ErrorResponse {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return NotFoundError
	case errors.Is(err, service.ErrUnknownNode):
		return UnknownNodeError
	case errors.Is(err, service.ErrInvoiceExpired):
		return InvoiceExpiredError
	case errors.Is(err, service.ErrInvalidInput):
		return ErrorResponse{
			Error:          true,
			Code:           BadArgumentsError.Code,
			Message:        err.Error(),
			HttpStatusCode: http.StatusBadRequest,
		}
	case errors.Is(err, service.ErrNodeUnavailable):
		return NodeUnavailableError
	default:
		return GeneralServerError
	}
}

// RespondWithServiceError writes the mapped error response. Server side
// failures are logged and reported, client errors are not.
func RespondWithServiceError(c echo.Context, err error) error {
	resp := FromServiceError(err)
	if resp.HttpStatusCode >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s failed: %v", c.Request().Method, c.Path(), err)
		sentry.CaptureException(err)
	}
	return c.JSON(resp.HttpStatusCode, resp)
}

func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.Logger().Error(err)
	if hub := sentryecho.GetHubFromContext(c); hub != nil && isErrAllowedForSentry(err) {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetExtra("Path", c.Path())
			hub.CaptureException(err)
		})
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		c.JSON(he.Code, ErrorResponse{
			Error:          true,
			Code:           BadArgumentsError.Code,
			Message:        http.StatusText(he.Code),
			HttpStatusCode: he.Code,
		})
		return
	}
	resp := FromServiceError(err)
	c.JSON(resp.HttpStatusCode, resp)
}

// client errors are not worth a sentry event
func isErrAllowedForSentry(err error) bool {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code >= http.StatusInternalServerError
	}
	return !errors.Is(err, service.ErrNotFound) && !errors.Is(err, service.ErrInvalidInput)
}
