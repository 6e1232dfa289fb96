package entity

import (
	"net/http"
	"strconv"
)

const (
	CookieMobileClient        = "android"
	CookieMobileClientVersion = "777777 3.6.4"
)

// CookieDomains are the hosts a session cookie set is issued for.
var CookieDomains = []string{"steamcommunity.com", "store.steampowered.com"}

// Session is the logged-in state handed in by the caller.
type Session struct {
	AccountID    uint64 `json:"account_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
}

// EnsureSessionID fills SessionID once with gen and reports whether it changed.
func (s *Session) EnsureSessionID(gen func() string) bool {
	if s.SessionID != "" {
		return false
	}
	s.SessionID = gen()

	return true
}

// SteamLoginSecure is the steamLoginSecure cookie value, already percent-encoded.
func (s Session) SteamLoginSecure() string {
	return strconv.FormatUint(s.AccountID, 10) + "%7C%7C" + s.AccessToken
}

// Cookies returns the cookie set for every domain in CookieDomains.
// SessionID must have been filled before.
func (s Session) Cookies() []*http.Cookie {
	out := make([]*http.Cookie, 0, 4*len(CookieDomains))
	for _, domain := range CookieDomains {
		out = append(out,
			&http.Cookie{Name: "steamLoginSecure", Value: s.SteamLoginSecure(), Path: "/", Domain: domain},
			&http.Cookie{Name: "sessionid", Value: s.SessionID, Path: "/", Domain: domain},
			&http.Cookie{Name: "mobileClient", Value: CookieMobileClient, Path: "/", Domain: domain},
			&http.Cookie{Name: "mobileClientVersion", Value: CookieMobileClientVersion, Path: "/", Domain: domain},
		)
	}

	return out
}

// CookiesFor returns the cookies issued for domain.
func (s Session) CookiesFor(domain string) []*http.Cookie {
	out := make([]*http.Cookie, 0, 4)
	for _, c := range s.Cookies() {
		if c.Domain == domain {
			out = append(out, c)
		}
	}

	return out
}
