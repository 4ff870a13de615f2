package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeReturnPath(t *testing.T) {
	cases := map[string]string{
		"/admin/projects":         "/admin/projects",
		"/admin/projects?page=2":  "/admin/projects?page=2",
		"  /team ":                "/team",
		"":                        "",
		"admin":                   "",
		"//evil.example/admin":    "",
		"/\\evil.example":         "",
		"https://evil.example/":   "",
		"/admin/auth/signin":      "",
		"javascript:alert(1)":     "",
	}
	for in, want := range cases {
		assert.Equalf(t, want, SafeReturnPath(in), "input %q", in)
	}
}

func TestReturnToRememberAndTake(t *testing.T) {
	rt := NewReturnTo("secret", false)

	res := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/auth/signin", nil)
	require.NoError(t, rt.Remember(res, req, "/admin/members"))

	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)

	next := httptest.NewRequest(http.MethodPost, "/admin/auth/signin", nil)
	for _, c := range cookies {
		next.AddCookie(c)
	}
	assert.Equal(t, "/admin/members", rt.Take(httptest.NewRecorder(), next))
}

func TestReturnToIgnoresUnsafeTargets(t *testing.T) {
	rt := NewReturnTo("secret", false)
	res := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/auth/signin", nil)
	require.NoError(t, rt.Remember(res, req, "https://evil.example"))
	assert.Empty(t, res.Result().Cookies())

	assert.Equal(t, "/admin", rt.Take(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestReturnToRejectsForgedCookie(t *testing.T) {
	rt := NewReturnTo("secret", false)
	req := httptest.NewRequest(http.MethodPost, "/admin/auth/signin", nil)
	req.AddCookie(&http.Cookie{Name: returnToCookie, Value: "forged"})
	assert.Equal(t, "/admin", rt.Take(httptest.NewRecorder(), req))
}
