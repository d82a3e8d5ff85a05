package update

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

type fakePrompter struct {
	infos    []string
	confirms []string
	answer   bool
}

func (f *fakePrompter) Info(title, message string) { f.infos = append(f.infos, title) }

func (f *fakePrompter) Confirm(title, message string) bool {
	f.confirms = append(f.confirms, title)
	return f.answer
}

func newTestChecker(feed, current string, p *fakePrompter, opened *[]string) *Checker {
	c := NewChecker(zap.NewNop(), feed, current)
	c.prompt = p
	c.open = func(url string) error {
		*opened = append(*opened, url)
		return nil
	}
	return c
}

func feedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewer(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"1.2.0", "1.1.9", true},
		{"v1.10.0", "1.9.3", true},
		{"1.2", "1.2.0", false},
		{"1.2.0-beta", "1.2.0", false},
		{"1.2.1", "v1.2.0+build5", true},
		{"0.9.0", "1.0.0", false},
	}
	for _, tt := range tests {
		if got := Newer(tt.latest, tt.current); got != tt.want {
			t.Errorf("Newer(%q, %q) = %v", tt.latest, tt.current, got)
		}
	}
}

func TestCheckOffersNewerRelease(t *testing.T) {
	srv := feedServer(t, http.StatusOK, `{"version":"2.0.0","url":"https://example.com/dl"}`)
	p := &fakePrompter{answer: true}
	var opened []string

	if err := newTestChecker(srv.URL, "1.4.0", p, &opened).Check(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(p.confirms) != 1 || len(opened) != 1 || opened[0] != "https://example.com/dl" {
		t.Errorf("confirms %v, opened %v", p.confirms, opened)
	}
}

func TestCheckDeclined(t *testing.T) {
	srv := feedServer(t, http.StatusOK, `{"version":"2.0.0","url":"https://example.com/dl"}`)
	p := &fakePrompter{answer: false}
	var opened []string
	newTestChecker(srv.URL, "1.4.0", p, &opened).Check(context.Background())
	if len(opened) != 0 {
		t.Error("declined update still opened the browser")
	}
}

func TestCheckUpToDate(t *testing.T) {
	srv := feedServer(t, http.StatusOK, `{"version":"1.4.0"}`)
	p := &fakePrompter{}
	var opened []string
	if err := newTestChecker(srv.URL, "1.4.0", p, &opened).Check(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(p.infos) != 1 || len(p.confirms) != 0 {
		t.Errorf("infos %v, confirms %v", p.infos, p.confirms)
	}
}

func TestCheckFailures(t *testing.T) {
	var opened []string

	p := &fakePrompter{}
	if err := newTestChecker("", "1.0.0", p, &opened).Check(context.Background()); !errors.Is(err, ErrNoFeed) {
		t.Errorf("Check() = %v, want ErrNoFeed", err)
	}

	srv := feedServer(t, http.StatusInternalServerError, "")
	p = &fakePrompter{}
	if err := newTestChecker(srv.URL, "1.0.0", p, &opened).Check(context.Background()); err == nil {
		t.Error("server error not reported")
	}
	if len(p.infos) != 1 {
		t.Error("failure not shown to the user")
	}

	srv = feedServer(t, http.StatusOK, `{"url":"x"}`)
	if _, err := newTestChecker(srv.URL, "1.0.0", &fakePrompter{}, &opened).Latest(context.Background()); err == nil {
		t.Error("release without version accepted")
	}
}
