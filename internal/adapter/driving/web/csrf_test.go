package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFToken_SetsCookieOnce(t *testing.T) {
	rec := httptest.NewRecorder()
	csrfToken(rec, httptest.NewRequest(http.MethodGet, "/app/repos", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, csrfCookieName, cookies[0].Name)
	assert.Len(t, cookies[0].Value, csrfTokenBytes*2)

	req := httptest.NewRequest(http.MethodGet, "/app/repos", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	csrfToken(rec, req)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRequireCSRF(t *testing.T) {
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }
	handler := requireCSRF(ok)

	tests := []struct {
		name   string
		cookie string
		header string
		form   string
		want   int
	}{
		{name: "header matches", cookie: "tok", header: "tok", want: http.StatusNoContent},
		{name: "form field matches", cookie: "tok", form: "tok", want: http.StatusNoContent},
		{name: "mismatch", cookie: "tok", header: "other", want: http.StatusForbidden},
		{name: "no cookie", header: "tok", want: http.StatusForbidden},
		{name: "no token", cookie: "tok", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := url.Values{}
			if tt.form != "" {
				body.Set(csrfFormField, tt.form)
			}
			req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("X-CSRF-Token", tt.header)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
