package bot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebhookDispatchesCommand(t *testing.T) {
	sink := &memorySink{}
	b := newTestBot(sink, staticSource{sheet: inventory()}, nil)
	srv := httptest.NewServer(NewServer(b).Router())
	defer srv.Close()

	for _, path := range []string{"/", "/webhook"} {
		body := `{"type":"message","event":"new","content":"/start","chat_id":12345}`
		resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", path, resp.StatusCode)
		}
	}
	b.Wait()

	msgs := sink.messages()
	if len(msgs) != 2 {
		t.Fatalf("messages: %+v", msgs)
	}
	for _, m := range msgs {
		if m.chatID != "12345" {
			t.Fatalf("chat id: %q", m.chatID)
		}
	}
}

func TestWebhookRejectsBadBody(t *testing.T) {
	srv := httptest.NewServer(NewServer(newTestBot(&memorySink{}, staticSource{}, nil)).Router())
	defer srv.Close()

	for _, body := range []string{"not json", "{}"} {
		resp, err := http.Post(srv.URL+"/webhook", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%q: status %d", body, resp.StatusCode)
		}
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(NewServer(newTestBot(&memorySink{}, staticSource{}, nil)).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["status"] != "ok" || got["bot_name"] != "SIM bot" || got["timestamp"] == "" {
		t.Fatalf("health: %+v", got)
	}
}
