// Package harness composes the instance registry, the executor-backed
// HTTP handler, and a cookie-aware client into the surface end-to-end
// tests drive: synthesized requests against the composed system, direct
// proxies to live in-process instances, and shared cookie state between
// the two.
package harness

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/pithecene-io/ocan/proxyclient"
	"github.com/pithecene-io/ocan/registry"
	"github.com/pithecene-io/ocan/transport"
)

// Config configures one Run.
type Config struct {
	// BindingName is the binding the composed handler serves instances
	// under (default "test").
	BindingName string
	// Hostname is a display-only hostname scenarios can read back from
	// Options (default "127.0.0.1"). Fetch always targets the in-process
	// server regardless.
	Hostname string
	// DisableCookieJar turns off the shared cookie jar; the zero Config
	// keeps cookies on.
	DisableCookieJar bool
	// Middleware, if set, wraps the chain-dispatch handler — the hook for
	// scenarios that need auth cookies, header echoes, or failure
	// injection in front of the core.
	Middleware func(http.Handler) http.Handler
}

// Options is the read-only view of harness knobs handed to a scenario.
type Options struct {
	Hostname  string
	CookieJar bool
}

// Capabilities is what a scenario receives: a fetch surface, direct
// proxies into the registry, the cookie jar shared with fetch, and the
// composed system's pieces for scenarios that need to reach around the
// front door.
type Capabilities struct {
	// Registry holds the live instances the composed handler resolves
	// against. Scenarios register their actors here.
	Registry *registry.Registry
	// Cookies is the jar shared by every Fetch call; nil when the jar is
	// disabled.
	Cookies http.CookieJar
	// Options echoes the harness configuration.
	Options Options

	client *http.Client
	server *httptest.Server
}

// Run composes a registry, handler, server, and client, then hands the
// scenario its capabilities. Everything is torn down when the scenario
// returns.
func Run(t testing.TB, cfg Config, scenario func(caps *Capabilities)) {
	t.Helper()

	if cfg.BindingName == "" {
		cfg.BindingName = "test"
	}
	if cfg.Hostname == "" {
		cfg.Hostname = "127.0.0.1"
	}

	reg := registry.New()

	var handler http.Handler = &transport.Handler{
		BindingName: cfg.BindingName,
		Resolver:    reg,
		Disposer: func(bindingName, instanceName string) {
			reg.Unregister(bindingName, instanceName)
		},
	}
	if cfg.Middleware != nil {
		handler = cfg.Middleware(handler)
	}

	server := httptest.NewServer(handler)
	defer server.Close()

	caps := &Capabilities{
		Registry: reg,
		Options:  Options{Hostname: cfg.Hostname, CookieJar: !cfg.DisableCookieJar},
		client:   server.Client(),
		server:   server,
	}

	if !cfg.DisableCookieJar {
		jar, err := cookiejar.New(nil)
		if err != nil {
			t.Fatalf("harness: cookie jar: %v", err)
		}
		caps.client.Jar = jar
		caps.Cookies = jar
	}

	scenario(caps)
}

// Fetch synthesizes a request against the composed system. The request's
// scheme and host are rewritten to the in-process server, so scenarios
// may build requests against any hostname (or a bare path) and still hit
// the harness. Cookies flow through the shared jar.
func (c *Capabilities) Fetch(req *http.Request) (*http.Response, error) {
	base, err := url.Parse(c.server.URL)
	if err != nil {
		return nil, err
	}
	req.URL.Scheme = base.Scheme
	req.URL.Host = base.Host
	return c.client.Do(req)
}

// URL returns the composed server's base URL.
func (c *Capabilities) URL() string {
	return c.server.URL
}

// Instances returns a client proxy bound directly to the named
// in-process instance — no network in between.
func (c *Capabilities) Instances(bindingName, instanceName string) *proxyclient.Handle {
	return c.Registry.ClientFor(bindingName, instanceName)
}

// Dispatcher returns an HTTP transport aimed at the composed server, for
// scenarios exercising the full wire path rather than the in-process
// shortcut.
func (c *Capabilities) Dispatcher(t testing.TB) *transport.HTTPTransport {
	t.Helper()
	tr, err := transport.NewHTTPTransport(transport.HTTPConfig{URL: c.server.URL})
	if err != nil {
		t.Fatalf("harness: dispatcher: %v", err)
	}
	return tr
}

// Client returns a proxy handle for session whose chains travel over the
// composed server's HTTP surface.
func (c *Capabilities) Client(t testing.TB, session string) *proxyclient.Handle {
	t.Helper()
	return proxyclient.New(c.Dispatcher(t), session)
}

// BearerSubprotocol builds the Sec-WebSocket-Protocol header value a
// bearer-bound channel sends on upgrade: the base protocol token followed
// by "<prefix>.<token>". transport.ExtractBearerSubprotocol is its
// inverse; neither end decodes or verifies the token.
func BearerSubprotocol(base, prefix string, token transport.BearerToken) string {
	return base + ", " + prefix + "." + string(token)
}
