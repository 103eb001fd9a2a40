package crm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"growthgate/internal/models"
)

func testLead() models.Lead {
	return models.Lead{
		Name:        "María García",
		Email:       "maria@acme.com",
		Tag:         "reducir CAC",
		SourceSlug:  "cac-sostenible",
		SourceTitle: "CAC Sostenible",
	}
}

func TestForwardPayloadShape(t *testing.T) {
	got := make(chan payload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		got <- p
	}))
	defer srv.Close()

	f := New(srv.URL, "Growth4U", nil)
	f.Forward(testLead())
	f.Wait()

	select {
	case p := <-got:
		if p.FirstName != "María" || p.LastName != "García" {
			t.Errorf("name split: got %q %q", p.FirstName, p.LastName)
		}
		if p.Email != "maria@acme.com" {
			t.Errorf("email: got %q", p.Email)
		}
		if len(p.Tags) != 2 || p.Tags[0] != "lead-magnet" || p.Tags[1] != "cac-sostenible" {
			t.Errorf("tags: got %v", p.Tags)
		}
		if p.Source != "Growth4U - CAC Sostenible" {
			t.Errorf("source: got %q", p.Source)
		}
		if p.CustomData["tag"] != "reducir CAC" {
			t.Errorf("customData.tag: got %q", p.CustomData["tag"])
		}
	default:
		t.Fatal("webhook never received the payload")
	}
}

func TestForwardReturnsBeforeWebhookResponds(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release // hang until the test lets go
	}))
	defer srv.Close()
	defer close(release)

	f := New(srv.URL, "Growth4U", nil)

	done := make(chan struct{})
	go func() {
		f.Forward(testLead())
		close(done)
	}()

	select {
	case <-done:
		// Forward returned while the webhook is still hanging.
	case <-time.After(2 * time.Second):
		t.Fatal("Forward blocked on a hanging webhook")
	}
}

func TestForwardSwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := New(srv.URL, "Growth4U", nil)
	// Must not panic, block, or report anything to the caller.
	f.Forward(testLead())
	f.Wait()
}

func TestForwardDisabledWithoutURL(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	f := New("", "Growth4U", nil)
	if f.Enabled() {
		t.Error("empty URL must disable the forwarder")
	}
	f.Forward(testLead())
	f.Wait()
	if calls.Load() != 0 {
		t.Error("disabled forwarder must not call anything")
	}
}

func TestSingleWordNameGoesToFirst(t *testing.T) {
	lead := testLead()
	lead.Name = "Cher"
	first, last := lead.FirstLast()
	if first != "Cher" || last != "" {
		t.Errorf("got %q %q", first, last)
	}
}
