package show

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func selectFor(t *testing.T, target string, cookie string) (*Variant, *httptest.ResponseRecorder) {
	t.Helper()
	store := testStore()
	def, _ := store.Lookup("niki")
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	v := Select(rec, req, store, &def)
	return v, rec
}

func TestSelect_explicit_param_persists(t *testing.T) {
	v, rec := selectFor(t, "/1.mp4?show=pferde", "")
	if v == nil || v.Key != "pferde" {
		t.Fatalf("expected pferde, got %+v", v)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || cookies[0].Value != "pferde" {
		t.Errorf("expected show=pferde preference cookie, got %+v", cookies)
	}
	if cookies[0].MaxAge <= 0 || cookies[0].Path != "/" {
		t.Errorf("expected long-lived root-scoped cookie, got %+v", cookies[0])
	}
}

func TestSelect_empty_param_clears_preference(t *testing.T) {
	v, rec := selectFor(t, "/1.mp4?show=", "pferde")
	// The stored preference still resolves for this request.
	if v == nil || v.Key != "pferde" {
		t.Fatalf("expected pferde from cookie, got %+v", v)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected deleted preference cookie, got %+v", cookies)
	}
}

func TestSelect_cookie_preference(t *testing.T) {
	v, rec := selectFor(t, "/1.mp4", "pferde")
	if v == nil || v.Key != "pferde" {
		t.Fatalf("expected pferde from cookie, got %+v", v)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("cookie preference alone must not rewrite the cookie")
	}
}

func TestSelect_unresolved_explicit_param_not_persisted(t *testing.T) {
	v, rec := selectFor(t, "/1.mp4?show=unknown", "")
	if v == nil || v.Key != "niki" {
		t.Fatalf("expected default niki, got %+v", v)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("unresolved explicit parameter must not be persisted")
	}
}

func TestSelect_origin_hint(t *testing.T) {
	store := testStore()
	def, _ := store.Lookup("niki")
	req := httptest.NewRequest(http.MethodGet, "/1.mp4", nil)
	req.Host = "pferde.example.net:8080"
	rec := httptest.NewRecorder()

	v := Select(rec, req, store, &def)
	if v == nil || v.Key != "pferde" {
		t.Fatalf("expected pferde from origin hint, got %+v", v)
	}
}

func TestSelect_default_when_nothing_matches(t *testing.T) {
	v, _ := selectFor(t, "/1.mp4", "")
	if v == nil || v.Key != "niki" {
		t.Fatalf("expected configured default, got %+v", v)
	}
}
