package bluemoon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/theunits/units/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(&config.ProviderConfig{BaseURL: srv.URL + "/", AccessToken: "svc-token", Timeout: 5 * time.Second}, nil)
}

func TestEsignatureDetails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/esignature/lease/77" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer svc-token" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"data":{"id":77,"esign":{"data":{"signers":{"data":[]}}}}}`))
	})

	snap, err := c.EsignatureDetails(context.Background(), 77)
	if err != nil {
		t.Fatalf("EsignatureDetails: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(snap, &doc); err != nil {
		t.Fatalf("snapshot is not JSON: %v", err)
	}
	if doc["id"].(float64) != 77 {
		t.Errorf("snapshot = %s", snap)
	}
}

func TestEsignatureDetailsWithoutData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"nope"}`))
	})

	if _, err := c.EsignatureDetails(context.Background(), 1); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestNon2xxIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.ExecuteLease(context.Background(), 5, ExecuteRequest{Name: "A", Initials: "AB"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("err = %#v", err)
	}
}

func TestExecuteLease(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/esignature/lease/execute/5" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body ExecuteRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Initials != "AB" {
			t.Errorf("body = %+v", body)
		}
		w.Write([]byte(`{"executed":true}`))
	})

	ok, err := c.ExecuteLease(context.Background(), 5, ExecuteRequest{Name: "A", Initials: "AB"})
	if err != nil || !ok {
		t.Errorf("ExecuteLease = %v, %v", ok, err)
	}
}

func TestRequestEsignature(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body EsignatureRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.LeaseID != 42 || body.ExternalID != 3 || !body.SendNotifications {
			t.Errorf("body = %+v", body)
		}
		if len(body.Data.StandardForms) != 1 {
			t.Errorf("forms = %+v", body.Data)
		}
		w.Write([]byte(`{"success":true,"data":{"id":900,"data":{"status":"new"}}}`))
	})

	resp, err := c.RequestEsignature(context.Background(), EsignatureRequest{
		LeaseID:           42,
		ExternalID:        3,
		SendNotifications: true,
		NotificationURL:   "http://units/api/notifications",
		Data:              Forms{StandardForms: []string{"LEASE"}, CustomForms: []string{}},
	})
	if err != nil {
		t.Fatalf("RequestEsignature: %v", err)
	}
	if !resp.Success || resp.Data.ID != 900 || string(resp.Data.Data) != `{"status":"new"}` {
		t.Errorf("resp = %+v", resp)
	}
}

func TestLeaseFormsUsesAptdbProperty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/property":
			w.Write([]byte(`{"data":[{"id":1,"unit_type":"other"},{"id":4521,"unit_type":"aptdb"}]}`))
		case "/api/forms/list/4521":
			if r.URL.Query().Get("section") != "lease" {
				t.Errorf("section = %q", r.URL.Query().Get("section"))
			}
			w.Write([]byte(`{"lease":[{"name":"LEASE","type":"standard","title":"Lease"},{"name":"POOL","type":"custom"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	forms, err := c.LeaseForms(context.Background())
	if err != nil {
		t.Fatalf("LeaseForms: %v", err)
	}
	if len(forms) != 2 || forms[0].Name != "LEASE" || forms[1].Type != "custom" {
		t.Fatalf("forms = %+v", forms)
	}

	out, _ := json.Marshal(forms[0])
	if string(out) != `{"name":"LEASE","type":"standard","title":"Lease"}` {
		t.Errorf("form not passed through verbatim: %s", out)
	}
}

func TestPropertyNumberFallsBackToFirst(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"P-1","unit_type":"other"},{"id":"P-2","unit_type":"other"}]}`))
	})

	got, err := c.PropertyNumber(context.Background())
	if err != nil || got != "P-1" {
		t.Errorf("PropertyNumber = %q, %v", got, err)
	}
}
