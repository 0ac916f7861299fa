package show

import (
	"net/http"
	"strings"
	"time"
)

// CookieName is the preference cookie holding the last explicitly chosen
// variant key.
const CookieName = "show"

// cookieMaxAge keeps the preference for a year; the installation runs
// unattended and the choice should survive reboots of the player device.
const cookieMaxAge = 365 * 24 * time.Hour

// Select resolves the variant for an HTTP request and applies the preference
// write-back: an explicit show= parameter that resolves is persisted as the
// new stored preference, and an explicitly empty show= parameter clears it.
//
// Candidate priority: explicit query parameter, cookie preference, origin
// hint (first label of the request host), configured default.
func Select(w http.ResponseWriter, r *http.Request, store Store, def *Variant) *Variant {
	query := r.URL.Query()
	explicit := ""
	explicitSet := false
	if vals, ok := query["show"]; ok && len(vals) > 0 {
		explicit = vals[0]
		explicitSet = true
	}

	stored := ""
	if c, err := r.Cookie(CookieName); err == nil {
		stored = c.Value
	}

	v := Resolve([]string{explicit, stored, originHint(r.Host), keyOf(def)}, store, def)

	if explicitSet {
		if explicit == "" {
			clearPreference(w)
		} else if v != nil && strings.EqualFold(v.Key, explicit) {
			persistPreference(w, v.Key)
		}
	}
	return v
}

// originHint derives a candidate variant key from the request host: the first
// DNS label, so a client served from pferde.example.net defaults to the
// "pferde" content set.
func originHint(host string) string {
	if host == "" {
		return ""
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	label, _, _ := strings.Cut(host, ".")
	return label
}

func keyOf(v *Variant) string {
	if v == nil {
		return ""
	}
	return v.Key
}

func persistPreference(w http.ResponseWriter, key string) {
	http.SetCookie(w, &http.Cookie{
		Name:   CookieName,
		Value:  key,
		Path:   "/",
		MaxAge: int(cookieMaxAge.Seconds()),
	})
}

func clearPreference(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
