package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// envelope mirrors httputil.Response on the client side.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Kind    apperrors.Kind `json:"kind"`
		Code    string         `json:"code"`
		Message string         `json:"message"`
	} `json:"error"`
}

// DecodeData decodes the data half of a response envelope into out.
func DecodeData(r io.Reader, out any) error {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("decode response: no data in envelope")
	}
	return json.Unmarshal(env.Data, out)
}

// ParseResponseError consumes and closes a non-2xx response and turns it
// into an AppError. The server's error kind and code are preserved when the
// body is an error envelope.
func ParseResponseError(resp *http.Response, remote string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", remote, resp.StatusCode, err)
	}

	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		kind := env.Error.Kind
		if kind == "" {
			kind = kindForStatus(resp.StatusCode)
		}
		return apperrors.New(kind, env.Error.Code, fmt.Sprintf("%s: %s", remote, env.Error.Message), nil)
	}

	return apperrors.New(kindForStatus(resp.StatusCode), http.StatusText(resp.StatusCode),
		fmt.Sprintf("%s returned status %d: %s", remote, resp.StatusCode, string(body)), nil)
}

func kindForStatus(status int) apperrors.Kind {
	switch status {
	case http.StatusNotFound:
		return apperrors.KindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.KindValidation
	case http.StatusUnauthorized:
		return apperrors.KindUnauthorized
	case http.StatusForbidden:
		return apperrors.KindForbidden
	case http.StatusConflict:
		return apperrors.KindConflict
	default:
		return apperrors.KindInternal
	}
}
