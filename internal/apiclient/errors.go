package apiclient

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinels used to mark API failures. Test with errors.Is.
var (
	ErrForbidden = errors.New("accès refusé – clé API invalide")
	ErrConflict  = errors.New("resource still referenced")
	ErrServer    = errors.New("remote server error")
	ErrNetwork   = errors.New("échec de la connexion")
	ErrAPI       = errors.New("remote api error")
	ErrDecode    = errors.New("invalid api response")
)

// StatusNetwork is the status reported for transport-level failures.
const StatusNetwork = 0

// APIError is a non-2xx answer from the remote API.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	if e.Status == http.StatusForbidden {
		return fmt.Sprintf("%s: accès refusé – clé API invalide", e.Endpoint)
	}
	return fmt.Sprintf("%s: erreur API (%d)", e.Endpoint, e.Status)
}

func statusError(endpoint string, status int, body []byte) error {
	apiErr := &APIError{Endpoint: endpoint, Status: status, Body: truncate(string(body), 512)}
	switch {
	case status == http.StatusForbidden:
		return errors.Mark(errors.WithHint(apiErr, "check the configured API key"), ErrForbidden)
	case status == http.StatusConflict:
		return errors.Mark(apiErr, ErrConflict)
	case status >= 500:
		return errors.Mark(apiErr, ErrServer)
	default:
		return errors.Mark(apiErr, ErrAPI)
	}
}

func networkError(endpoint string, err error) error {
	return errors.Mark(
		errors.WithHint(errors.Wrapf(err, "request %s", endpoint), "check network access or CORS/firewall rules"),
		ErrNetwork,
	)
}

// StatusOf returns the HTTP status carried by err, StatusNetwork for
// transport failures and -1 when err does not come from the API.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	if errors.Is(err, ErrNetwork) {
		return StatusNetwork
	}
	return -1
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
