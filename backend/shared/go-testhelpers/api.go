package testhelpers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/shiftly/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

// BuildAuthRequest JSON-encodes body (when non-nil) and sets the bearer
// token (when non-empty).
func (h *TestHelper) BuildAuthRequest(method, reqURL, jwtString string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, reqURL, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if jwtString != "" {
		req.Header.Set("Authorization", "Bearer "+jwtString)
	}
	return req
}

// Serve runs req through handler in process.
func (h *TestHelper) Serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func (h *TestHelper) DecodeJSON(rr *httptest.ResponseRecorder, v any) {
	require.NoError(h.T, json.Unmarshal(rr.Body.Bytes(), v), "body: %s", rr.Body.String())
}

// ErrorCode returns the code field of an error envelope.
func (h *TestHelper) ErrorCode(rr *httptest.ResponseRecorder) string {
	var body utils.ErrorResponse
	h.DecodeJSON(rr, &body)
	return body.Code
}
