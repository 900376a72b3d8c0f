// Package webtest runs an http.Handler in a test server and offers
// request helpers that keep cookies and stop at redirects, so handler
// tests can assert on Location headers.
package webtest

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

type W struct {
	t      *testing.T
	srv    *httptest.Server
	Client *http.Client
}

func New(t *testing.T, h http.Handler) *W {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New: %v", err)
	}
	return &W{
		t:   t,
		srv: srv,
		Client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// URL resolves a path against the test server.
func (w *W) URL(path string) string {
	return w.srv.URL + path
}

// Get issues a GET and returns the response with its drained body.
func (w *W) Get(path string) (*http.Response, string) {
	w.t.Helper()
	resp, err := w.Client.Get(w.URL(path))
	if err != nil {
		w.t.Fatalf("GET %s: %v", path, err)
	}
	return resp, drain(w.t, resp)
}

// PostForm issues a form POST and returns the response with its
// drained body.
func (w *W) PostForm(path string, form url.Values) (*http.Response, string) {
	w.t.Helper()
	resp, err := w.Client.PostForm(w.URL(path), form)
	if err != nil {
		w.t.Fatalf("POST %s: %v", path, err)
	}
	return resp, drain(w.t, resp)
}

// PostJSON issues a POST with a JSON body.
func (w *W) PostJSON(path, body string) (*http.Response, string) {
	w.t.Helper()
	resp, err := w.Client.Post(w.URL(path), "application/json", strings.NewReader(body))
	if err != nil {
		w.t.Fatalf("POST %s: %v", path, err)
	}
	return resp, drain(w.t, resp)
}

// Do sends an arbitrary request built with NewRequest.
func (w *W) Do(req *http.Request) (*http.Response, string) {
	w.t.Helper()
	resp, err := w.Client.Do(req)
	if err != nil {
		w.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	return resp, drain(w.t, resp)
}

// NewRequest builds a request against the test server.
func (w *W) NewRequest(method, path string, body io.Reader) *http.Request {
	w.t.Helper()
	req, err := http.NewRequest(method, w.URL(path), body)
	if err != nil {
		w.t.Fatalf("NewRequest %s %s: %v", method, path, err)
	}
	return req
}

func drain(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}
