package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeMailer struct {
	sendFn func(ctx context.Context, msg Message) error
	calls  int
}

func (f *fakeMailer) Send(ctx context.Context, msg Message) error {
	f.calls++
	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return nil
}

func TestProtectedMailer_OpensAfterThreshold(t *testing.T) {
	inner := &fakeMailer{sendFn: func(context.Context, Message) error { return errors.New("boom") }}
	m := NewProtectedMailer(inner, ProtectedMailerConfig{FailureThreshold: 2, Cooldown: time.Minute})

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if err := m.Send(context.Background(), Message{To: "a@x.com"}); err == nil {
			t.Fatalf("send %d: expected provider error", i)
		}
	}

	if got := m.State(); got != stateOpen {
		t.Fatalf("state = %s, want open", got)
	}

	if err := m.Send(context.Background(), Message{To: "a@x.com"}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if inner.calls != 2 {
		t.Fatalf("inner called %d times, want 2", inner.calls)
	}

	// cooldown elapsed: one trial call goes through and closes on success
	now = now.Add(time.Minute)
	inner.sendFn = nil

	if err := m.Send(context.Background(), Message{To: "a@x.com"}); err != nil {
		t.Fatalf("trial send: %v", err)
	}
	if got := m.State(); got != stateClosed {
		t.Fatalf("state = %s, want closed", got)
	}
}

func TestProtectedMailer_HalfOpenFailureReopens(t *testing.T) {
	inner := &fakeMailer{sendFn: func(context.Context, Message) error { return errors.New("boom") }}
	m := NewProtectedMailer(inner, ProtectedMailerConfig{FailureThreshold: 1, Cooldown: time.Second})

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_ = m.Send(context.Background(), Message{})
	now = now.Add(2 * time.Second)
	_ = m.Send(context.Background(), Message{})

	if got := m.State(); got != stateOpen {
		t.Fatalf("state = %s, want open", got)
	}
}

func TestProtectedMailer_AppliesTimeout(t *testing.T) {
	inner := &fakeMailer{sendFn: func(ctx context.Context, _ Message) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	m := NewProtectedMailer(inner, ProtectedMailerConfig{Timeout: 10 * time.Millisecond})

	err := m.Send(context.Background(), Message{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestBrevoMailer_Send(t *testing.T) {
	var got brevoSendRequest
	var apiKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<1@brevo>"}`))
	}))
	defer srv.Close()

	m := NewBrevoMailer(BrevoConfig{
		APIKey:    "key-123",
		FromEmail: "no-reply@sitehub.test",
		FromName:  "Sitehub",
		Endpoint:  srv.URL,
	}, srv.Client())

	err := m.Send(context.Background(), Message{To: "alice@x.com", Subject: "Reset", HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if apiKey != "key-123" {
		t.Fatalf("api-key header = %q", apiKey)
	}
	if len(got.To) != 1 || got.To[0].Email != "alice@x.com" || got.Sender.Email != "no-reply@sitehub.test" {
		t.Fatalf("unexpected request body: %+v", got)
	}
}

func TestBrevoMailer_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"unauthorized"}`))
	}))
	defer srv.Close()

	m := NewBrevoMailer(BrevoConfig{APIKey: "bad", FromEmail: "a@x.com", Endpoint: srv.URL}, srv.Client())

	if err := m.Send(context.Background(), Message{To: "b@x.com", Subject: "s", HTML: "h"}); err == nil {
		t.Fatalf("expected error for 401 response")
	}
}

func TestBrevoMailer_NotConfigured(t *testing.T) {
	m := NewBrevoMailer(BrevoConfig{}, nil)

	if err := m.Send(context.Background(), Message{To: "b@x.com", Subject: "s", HTML: "h"}); !errors.Is(err, ErrMailerNotConfigured) {
		t.Fatalf("err = %v, want ErrMailerNotConfigured", err)
	}
}
