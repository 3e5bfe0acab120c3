package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const defaultSunoBaseURL = "https://api.sunoapi.org"

// GenerateRequest is the music-generation payload sent to the Suno-style API.
type GenerateRequest struct {
	Topic            string `json:"topic,omitempty"`
	Tags             string `json:"tags,omitempty"`
	NegativeTags     string `json:"negative_tags,omitempty"`
	Prompt           string `json:"prompt,omitempty"` // lyrics; empty for instrumental
	MakeInstrumental bool   `json:"make_instrumental"`
	Model            string `json:"model,omitempty"`
}

type sunoGenerateResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

type sunoTrack struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	AudioURL       string `json:"audio_url"`
	StreamAudioURL string `json:"stream_audio_url"`
}

type sunoStatusResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *struct {
		TaskID   string `json:"taskId"`
		Status   string `json:"status"`
		Response *struct {
			Data []sunoTrack `json:"data"`
		} `json:"response"`
	} `json:"data"`
}

// sunoClient implements GenerationBackend against a Suno-style HTTP API.
type sunoClient struct {
	baseURL string
	apiKey  string
}

func NewSunoBackend(cfg Config) GenerationBackend {
	base := cfg.SunoBaseURL
	if base == "" {
		base = defaultSunoBaseURL
	}
	return &sunoClient{baseURL: base, apiKey: cfg.SunoAPIKey}
}

func (c *sunoClient) Submit(genReq GenerateRequest) (JobHandle, error) {
	body, err := json.Marshal(genReq)
	if err != nil {
		return JobHandle{}, fmt.Errorf("marshaling generate request: %w", err)
	}

	respBody, err := c.do("POST", c.baseURL+"/api/v1/generate", bytes.NewReader(body))
	if err != nil {
		return JobHandle{}, err
	}

	var parsed sunoGenerateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return JobHandle{}, fmt.Errorf("parsing generate response: %w (raw: %s)", err, respBody)
	}
	if parsed.Code != 200 {
		return JobHandle{}, fmt.Errorf("generate API returned code %d: %s", parsed.Code, parsed.Msg)
	}
	if parsed.Data == nil || parsed.Data.TaskID == "" {
		return JobHandle{}, fmt.Errorf("generate response missing task id")
	}
	return JobHandle{ID: parsed.Data.TaskID}, nil
}

func (c *sunoClient) Poll(handle JobHandle) (JobStatus, error) {
	endpoint := fmt.Sprintf("%s/api/v1/generate/record-info?taskId=%s",
		c.baseURL, url.QueryEscape(handle.ID))

	respBody, err := c.do("GET", endpoint, nil)
	if err != nil {
		return JobStatus{}, err
	}

	var parsed sunoStatusResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return JobStatus{}, fmt.Errorf("parsing status response: %w (raw: %s)", err, respBody)
	}

	var out JobStatus
	if parsed.Data != nil {
		out.Status = parsed.Data.Status
		if parsed.Data.Response != nil {
			out.ResultURL = pickStreamOrAudio(parsed.Data.Response.Data)
		}
	}
	return out, nil
}

func (c *sunoClient) do(method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequest(method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := externalHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("generation API returned %d: %s", resp.StatusCode, respBody)
	}
	return respBody, nil
}

// pickStreamOrAudio prefers the stream URL so playback can start before the
// full render finishes.
func pickStreamOrAudio(tracks []sunoTrack) string {
	for _, t := range tracks {
		if t.StreamAudioURL != "" {
			return t.StreamAudioURL
		}
	}
	for _, t := range tracks {
		if t.AudioURL != "" {
			return t.AudioURL
		}
	}
	return ""
}
