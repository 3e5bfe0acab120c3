package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSunoSubmit(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotAuth string
		var gotReq GenerateRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v1/generate" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			gotAuth = r.Header.Get("Authorization")
			if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
				t.Errorf("decoding request: %v", err)
			}
			w.Write([]byte(`{"code": 200, "msg": "ok", "data": {"taskId": "task-42"}}`))
		}))
		defer server.Close()

		client := &sunoClient{baseURL: server.URL, apiKey: "secret"}
		handle, err := client.Submit(GenerateRequest{Topic: "focus music", Tags: "lofi", MakeInstrumental: true})
		if err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
		if handle.ID != "task-42" {
			t.Fatalf("handle id = %q, want task-42", handle.ID)
		}
		if gotAuth != "Bearer secret" {
			t.Fatalf("auth header = %q", gotAuth)
		}
		if gotReq.Topic != "focus music" || !gotReq.MakeInstrumental {
			t.Fatalf("unexpected request payload: %+v", gotReq)
		}
	})

	t.Run("api-level error code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code": 429, "msg": "insufficient credits"}`))
		}))
		defer server.Close()

		client := &sunoClient{baseURL: server.URL, apiKey: "secret"}
		if _, err := client.Submit(GenerateRequest{}); err == nil {
			t.Fatal("expected error for non-200 api code")
		}
	})

	t.Run("http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		client := &sunoClient{baseURL: server.URL, apiKey: "secret"}
		if _, err := client.Submit(GenerateRequest{}); err == nil {
			t.Fatal("expected error for HTTP 500")
		}
	})

	t.Run("missing task id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code": 200, "msg": "ok"}`))
		}))
		defer server.Close()

		client := &sunoClient{baseURL: server.URL, apiKey: "secret"}
		if _, err := client.Submit(GenerateRequest{}); err == nil {
			t.Fatal("expected error for missing task id")
		}
	})
}

func TestSunoPoll(t *testing.T) {
	t.Run("prefers stream url", func(t *testing.T) {
		var gotTaskID string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotTaskID = r.URL.Query().Get("taskId")
			w.Write([]byte(`{
				"code": 200, "msg": "ok",
				"data": {
					"taskId": "task-42",
					"status": "SUCCESS",
					"response": {"data": [
						{"id": "c1", "audio_url": "https://cdn/full.mp3", "stream_audio_url": "https://cdn/stream.mp3"}
					]}
				}
			}`))
		}))
		defer server.Close()

		client := &sunoClient{baseURL: server.URL, apiKey: "secret"}
		status, err := client.Poll(JobHandle{ID: "task-42"})
		if err != nil {
			t.Fatalf("Poll returned error: %v", err)
		}
		if gotTaskID != "task-42" {
			t.Fatalf("taskId query = %q", gotTaskID)
		}
		if status.ResultURL != "https://cdn/stream.mp3" {
			t.Fatalf("result url = %q, want stream url", status.ResultURL)
		}
	})

	t.Run("pending without tracks", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code": 200, "msg": "ok", "data": {"taskId": "task-42", "status": "PENDING"}}`))
		}))
		defer server.Close()

		client := &sunoClient{baseURL: server.URL, apiKey: "secret"}
		status, err := client.Poll(JobHandle{ID: "task-42"})
		if err != nil {
			t.Fatalf("Poll returned error: %v", err)
		}
		if status.Status != "PENDING" || status.ResultURL != "" {
			t.Fatalf("unexpected status: %+v", status)
		}
	})
}

func TestPickStreamOrAudio(t *testing.T) {
	tests := []struct {
		name   string
		tracks []sunoTrack
		want   string
	}{
		{"empty", nil, ""},
		{
			"stream preferred",
			[]sunoTrack{{AudioURL: "a", StreamAudioURL: "s"}},
			"s",
		},
		{
			"audio fallback",
			[]sunoTrack{{AudioURL: "a"}},
			"a",
		},
		{
			"stream from later track wins over earlier audio",
			[]sunoTrack{{AudioURL: "a"}, {StreamAudioURL: "s"}},
			"s",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickStreamOrAudio(tt.tracks); got != tt.want {
				t.Errorf("pickStreamOrAudio() = %q, want %q", got, tt.want)
			}
		})
	}
}
