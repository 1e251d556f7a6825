package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Header: make(http.Header), Body: io.NopCloser(bytes.NewBufferString(body))}
}

func newTestClient(t *testing.T, rt roundTripFunc) *client {
	t.Helper()
	c, err := newClient(logger.NewNop(), Config{APIKey: "sk-test", BaseURL: "http://openai.local", Model: "m1", MaxRetries: 2}, &http.Client{Transport: rt})
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}
	c.baseBackoff = time.Millisecond
	return c
}

const okText = `{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"hello"}]}]}`

func TestGenerateTextRequestShape(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1/responses" {
			t.Fatalf("path: got=%q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Fatalf("auth header: got=%q", r.Header.Get("Authorization"))
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["max_output_tokens"] != float64(800) || body["temperature"] != 0.3 {
			t.Fatalf("params: got=%v", body)
		}
		return response(200, okText), nil
	})
	got, err := c.GenerateText(context.Background(), "sys", "user", 800, 0.3)
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if got != "hello" {
		t.Fatalf("text: want=hello got=%q", got)
	}
}

func TestGenerateTextRetriesTransientErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return response(503, "busy"), nil
		}
		return response(200, okText), nil
	})
	if _, err := c.GenerateText(context.Background(), "sys", "user", 0, 0.2); err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls: want=3 got=%d", calls)
	}
}

func TestGenerateTextDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		calls++
		return response(401, "bad key"), nil
	})
	_, err := c.GenerateText(context.Background(), "sys", "user", 0, 0.2)
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != 401 {
		t.Fatalf("want 401 HTTPError, got=%v", err)
	}
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}

func TestGenerateTextDropsRejectedTemperature(t *testing.T) {
	var sawTemp []bool
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, has := body["temperature"]
		sawTemp = append(sawTemp, has)
		if has {
			return response(400, `{"error":{"message":"Unsupported parameter: 'temperature' is not supported with this model."}}`), nil
		}
		return response(200, okText), nil
	})
	if _, err := c.GenerateText(context.Background(), "sys", "user", 0, 0.7); err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if _, err := c.GenerateText(context.Background(), "sys", "user", 0, 0.7); err != nil {
		t.Fatalf("GenerateText second: %v", err)
	}
	want := []bool{true, false, false}
	if len(sawTemp) != len(want) {
		t.Fatalf("calls: want=%v got=%v", want, sawTemp)
	}
	for i := range want {
		if sawTemp[i] != want[i] {
			t.Fatalf("temperature presence: want=%v got=%v", want, sawTemp)
		}
	}
}

func TestEmbedOrdersByIndex(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return response(200, `{"data":[{"index":1,"embedding":[2,2]},{"index":0,"embedding":[1,1]}]}`), nil
	})
	got, err := c.Embed(context.Background(), []string{"a", ""})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != 2 || got[0][0] != 1 || got[1][0] != 2 {
		t.Fatalf("order: got=%v", got)
	}
}

func TestEmbedMissingVector(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return response(200, `{"data":[{"index":0,"embedding":[1]}]}`), nil
	})
	if _, err := c.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatalf("expected error for missing embedding")
	}
}
