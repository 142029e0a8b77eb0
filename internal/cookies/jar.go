package cookies

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// ErrNoHost is returned when a cookie is added for a URL without a host.
var ErrNoHost = errors.New("cookie URL has no host")

// Cookie is a cookie as seen from one host.
type Cookie struct {
	Host  string
	Name  string
	Value string
}

func (c Cookie) String() string {
	return fmt.Sprintf("%s: %s=%s", c.Host, c.Name, c.Value)
}

// Jar is an http.CookieJar shared by every request of a session. It
// remembers the hosts it has stored cookies for so they can be listed.
type Jar struct {
	mu    sync.RWMutex
	jar   *cookiejar.Jar
	hosts map[string]*url.URL
}

// NewJar creates an empty jar using the public suffix list.
func NewJar() *Jar {
	return &Jar{
		jar:   newCookieJar(),
		hosts: make(map[string]*url.URL),
	}
}

func newCookieJar() *cookiejar.Jar {
	// cookiejar.New only fails on a nil PublicSuffixList interface value.
	jar, _ := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	return jar
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)
	j.hosts[u.Hostname()] = &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.jar.Cookies(u)
}

// AddRaw stores the pairs of a Cookie header value ("a=1; b=2") for the
// host of rawURL.
func (j *Jar) AddRaw(rawURL, raw string) (int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("parse cookie URL: %w", err)
	}
	if u.Hostname() == "" {
		return 0, ErrNoHost
	}
	parsed, err := http.ParseCookie(raw)
	if err != nil {
		return 0, fmt.Errorf("parse cookie: %w", err)
	}
	for _, c := range parsed {
		c.Path = "/"
	}
	j.SetCookies(u, parsed)
	return len(parsed), nil
}

// All lists every live cookie, ordered by host then name.
func (j *Jar) All() []Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()

	hosts := make([]string, 0, len(j.hosts))
	for host := range j.hosts {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	var result []Cookie
	for _, host := range hosts {
		found := j.jar.Cookies(j.hosts[host])
		sort.Slice(found, func(a, b int) bool { return found[a].Name < found[b].Name })
		for _, c := range found {
			result = append(result, Cookie{Host: host, Name: c.Name, Value: c.Value})
		}
	}
	return result
}

// Len returns the number of live cookies.
func (j *Jar) Len() int {
	return len(j.All())
}

// Clear removes every cookie.
func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar = newCookieJar()
	j.hosts = make(map[string]*url.URL)
}
