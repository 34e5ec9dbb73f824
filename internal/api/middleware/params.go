package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	// ParamKey carries the claimant's public API key.
	ParamKey = "hmacKey"
	// ParamDigest carries the hex-encoded HMAC digest of the request.
	ParamDigest = "hmacHash"
	// ParamDebugKey is a debug-only field naming an identity whose secret
	// should be disclosed in the debug response.
	ParamDebugKey = "APIKEY"
	// ParamDebugSecret is the debug-only field the disclosed secret is
	// returned under.
	ParamDebugSecret = "APISECRET"

	maxSignedBody = 1 << 20 // 1 MiB
)

// HashParams flattens the request into the name→value mapping the protocol
// operates on: query parameters, form fields, and top-level scalar fields of
// a JSON body. Repeated fields keep their first value so canonicalization is
// stable under duplication. The request body is restored afterwards so
// handler binding still works.
func HashParams(c echo.Context) (map[string]string, error) {
	params := make(map[string]string)

	for name, values := range c.QueryParams() {
		if len(values) > 0 {
			params[name] = values[0]
		}
	}

	req := c.Request()
	contentType := req.Header.Get(echo.HeaderContentType)
	switch {
	case strings.HasPrefix(contentType, echo.MIMEApplicationJSON):
		if err := jsonBodyParams(req, params); err != nil {
			return nil, err
		}
	case strings.HasPrefix(contentType, echo.MIMEApplicationForm),
		strings.HasPrefix(contentType, echo.MIMEMultipartForm):
		form, err := c.FormParams()
		if err != nil {
			return nil, err
		}
		for name, values := range form {
			if _, dup := params[name]; !dup && len(values) > 0 {
				params[name] = values[0]
			}
		}
	}

	return params, nil
}

// SignedParams returns the subset of params that participates in
// canonicalization: everything except the digest itself and the
// debug-only key-disclosure fields.
func SignedParams(params map[string]string) map[string]string {
	signed := make(map[string]string, len(params))
	for name, value := range params {
		switch name {
		case ParamDigest, ParamDebugKey, ParamDebugSecret:
			continue
		}
		signed[name] = value
	}
	return signed
}

// jsonBodyParams merges the top-level scalar fields of a JSON object body
// into params. Nested objects, arrays, and nulls do not participate in
// signing. Numbers keep their wire representation so the client and server
// canonicalize identical bytes.
func jsonBodyParams(req *http.Request, params map[string]string) error {
	if req.Body == nil {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, maxSignedBody))
	if err != nil {
		return err
	}
	req.Body = io.NopCloser(bytes.NewReader(body))

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return err
	}

	for name, value := range fields {
		if _, dup := params[name]; dup {
			continue
		}
		switch v := value.(type) {
		case string:
			params[name] = v
		case json.Number:
			params[name] = v.String()
		case bool:
			params[name] = strconv.FormatBool(v)
		}
	}
	return nil
}
