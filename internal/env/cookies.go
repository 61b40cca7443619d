package env

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"hitman/internal/scope"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// CookieKey is the data file key holding persisted Set-Cookie values.
const CookieKey = "Cookies"

// Jar is a cookie jar that survives between runs. Persisted cookies are
// read once when the jar is created and replayed to later requests; cookies
// received are kept in memory until Save writes them to the data file as
// Set-Cookie strings. Within a process an in-memory jar applies the usual
// domain rules.
type Jar struct {
	root   string
	logger *zap.Logger
	inner  *cookiejar.Jar

	mu     sync.Mutex
	stored []*http.Cookie
	dirty  bool
}

// NewJar creates a jar persisting under root. An unreadable data file
// starts the jar empty.
func NewJar(root string, logger *zap.Logger) (*Jar, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	j := &Jar{root: root, logger: logger, inner: inner}
	data, err := ReadData(root)
	if err != nil {
		logger.Debug("ignoring persisted cookies", zap.Error(err))
	}
	j.stored = ParseCookies(data[CookieKey])
	return j, nil
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	j.inner.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		j.stored = replaceCookie(j.stored, c)
	}
	j.dirty = true
}

// Cookies implements http.CookieJar. Persisted cookies are sent unless the
// in-memory jar already has one with the same name or their domain does
// not match.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	out := j.inner.Cookies(u)
	have := make(map[string]bool, len(out))
	for _, c := range out {
		have[c.Name] = true
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	host := u.Hostname()
	for _, c := range j.stored {
		if have[c.Name] || !domainMatch(host, c.Domain) {
			continue
		}
		have[c.Name] = true
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// Save writes the cookies received since the last save to the data file.
func (j *Jar) Save() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.dirty {
		return nil
	}

	values := make([]any, len(j.stored))
	for i, c := range j.stored {
		values[i] = c.String()
	}
	if err := UpdateData(j.root, scope.Table{CookieKey: values}); err != nil {
		j.logger.Debug("saving cookies", zap.Error(err))
		return fmt.Errorf("save cookies: %w", err)
	}
	j.dirty = false
	return nil
}

// ParseCookies parses an array of Set-Cookie strings, skipping invalid ones.
func ParseCookies(v any) []*http.Cookie {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []*http.Cookie
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		c, err := http.ParseSetCookie(s)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

// replaceCookie swaps in c for a stored cookie with the same name. Expired
// cookies are dropped.
func replaceCookie(stored []*http.Cookie, c *http.Cookie) []*http.Cookie {
	out := stored[:0]
	for _, s := range stored {
		if s.Name != c.Name {
			out = append(out, s)
		}
	}
	if c.MaxAge >= 0 {
		out = append(out, c)
	}
	return out
}

func domainMatch(host, domain string) bool {
	domain = strings.TrimPrefix(strings.ToLower(domain), ".")
	if domain == "" {
		return true
	}
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
