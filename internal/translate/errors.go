package translate

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rkm/fedeo-stac-gateway/internal/federation"
	"github.com/rkm/fedeo-stac-gateway/internal/fields"
	"github.com/rkm/fedeo-stac-gateway/internal/stac"
)

var (
	// ErrInvalidGeometry is returned when geometry conversion fails.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrUnsupportedFilter is returned when a filter expression cannot be
	// translated.
	ErrUnsupportedFilter = errors.New("unsupported filter expression")
)

// RedactedMessage replaces the client-facing text of authentication and
// misconfiguration errors. Their real messages describe internal setup
// state and are only logged server-side.
const RedactedMessage = "Internal server error: please contact the administrator"

// statusByKind maps classified provider error kinds to HTTP status codes.
var statusByKind = map[federation.ErrorKind]int{
	federation.KindAuthentication:        http.StatusInternalServerError,
	federation.KindMisconfiguration:      http.StatusInternalServerError,
	federation.KindDownload:              http.StatusInternalServerError,
	federation.KindNotAvailable:          http.StatusNotFound,
	federation.KindNoMatchingCollection:  http.StatusNotFound,
	federation.KindUnsupportedCollection: http.StatusNotFound,
	federation.KindUnsupportedBackend:    http.StatusNotFound,
	federation.KindTimeout:               http.StatusGatewayTimeout,
	federation.KindValidation:            http.StatusBadRequest,
}

// StatusForError returns the HTTP status for a single error. Unclassified
// errors map to 500.
func StatusForError(err error) int {
	var fe *federation.Error
	if errors.As(err, &fe) {
		if status, ok := statusByKind[fe.Kind]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

func isSensitive(kind federation.ErrorKind) bool {
	return kind == federation.KindAuthentication || kind == federation.KindMisconfiguration
}

// TranslateSearchErrors converts per-provider failures into the
// client-facing error list and the aggregate HTTP status. A single failure
// keeps its own status; two or more collapse to 400.
func TranslateSearchErrors(errs []federation.ProviderError, registry *fields.Registry, logger *slog.Logger) (int, *stac.SearchErrorList) {
	list := &stac.SearchErrorList{Errors: make([]*stac.SearchError, 0, len(errs))}

	for _, pe := range errs {
		status := StatusForError(pe.Err)
		entry := &stac.SearchError{
			Provider:   pe.Provider,
			StatusCode: status,
		}

		var fe *federation.Error
		if errors.As(pe.Err, &fe) {
			entry.Error = string(fe.Kind)
			if isSensitive(fe.Kind) {
				logger.Error("provider error redacted",
					"provider", pe.Provider,
					"kind", string(fe.Kind),
					"error", fe.Message,
					"detail", fe.Detail)
				entry.Message = RedactedMessage
			} else {
				entry.Message = rewriteParameters(fe.Message, fe.Parameters, registry)
				entry.Detail = fe.Detail
			}
		} else {
			entry.Error = "Exception"
			entry.Message = pe.Err.Error()
		}

		list.Errors = append(list.Errors, entry)
	}

	status := http.StatusBadRequest
	if len(list.Errors) == 1 {
		status = list.Errors[0].StatusCode
	}
	return status, list
}

// rewriteParameters replaces native field names appearing in an error
// message with their STAC equivalents so clients see the vocabulary they
// queried with.
func rewriteParameters(message string, parameters []string, registry *fields.Registry) string {
	for _, native := range parameters {
		stacName := registry.ToStac(native)
		if stacName != native {
			message = strings.ReplaceAll(message, native, stacName)
		}
	}
	return message
}
