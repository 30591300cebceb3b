package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeTransport records the last reply per chat.
type fakeTransport struct {
	replies   map[int64]Reply
	sent      map[int64]string
	callbacks []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{replies: map[int64]Reply{}, sent: map[int64]string{}}
}

func (f *fakeTransport) Send(_ context.Context, chatID int64, text string) error {
	f.sent[chatID] = text
	return nil
}

func (f *fakeTransport) SendReply(_ context.Context, chatID int64, r Reply) error {
	f.replies[chatID] = r
	return nil
}

func (f *fakeTransport) AnswerCallback(_ context.Context, id string) error {
	f.callbacks = append(f.callbacks, id)
	return nil
}

func TestWebhookDispatchesMessage(t *testing.T) {
	d, _ := testDispatcher(t)
	ft := newFakeTransport()
	h := WebhookHandler(d, ft)

	body := `{"update_id":1,"message":{"message_id":1,"chat":{"id":42},"text":"/start"}}`
	req := httptest.NewRequest(http.MethodPost, "/bot/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200; got %d", rec.Code)
	}
	r, ok := ft.replies[42]
	if !ok || r.Text == "" {
		t.Fatalf("expected a greeting reply; got %+v", ft.replies)
	}
}

func TestWebhookDispatchesCallback(t *testing.T) {
	d, _ := testDispatcher(t)
	ft := newFakeTransport()
	h := WebhookHandler(d, ft)

	body := `{"update_id":2,"callback_query":{"id":"cb1","message":{"message_id":1,"chat":{"id":42}},"data":"menu"}}`
	req := httptest.NewRequest(http.MethodPost, "/bot/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200; got %d", rec.Code)
	}
	if len(ft.callbacks) != 1 || ft.callbacks[0] != "cb1" {
		t.Fatalf("expected callback cb1 answered; got %v", ft.callbacks)
	}
	if ft.replies[42].Text != "Main menu" {
		t.Fatalf("expected main menu reply; got %+v", ft.replies[42])
	}
}

// A body Telegram would never send still gets a 200 so the webhook is not
// retried forever.
func TestWebhookAlwaysAcknowledges(t *testing.T) {
	d, _ := testDispatcher(t)
	h := WebhookHandler(d, newFakeTransport())

	for _, body := range []string{"not json", "{}", `{"update_id":3}`} {
		req := httptest.NewRequest(http.MethodPost, "/bot/webhook", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("body %q: expected 200; got %d", body, rec.Code)
		}
	}
}
