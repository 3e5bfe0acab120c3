package main

import (
	"fmt"
	"strings"
)

const maxTopicChars = 499
const maxTagsChars = 100
const maxLyricsChars = 500
const maxRecentGenres = 5

// BuildGenerateRequest turns a classified context plus user preferences into
// a generation payload. Genre choice avoids the most recently used genres so
// consecutive tracks don't all sound the same.
func BuildGenerateRequest(cfg Config, current ContextSummary, recentGenres []string) GenerateRequest {
	genres := pickGenres(cfg.Genres, recentGenres, 2)
	tags := strings.Join(genres, ", ")
	if tags == "" {
		tags = "cinematic, ambient"
	}

	req := GenerateRequest{
		Topic:            shorten(buildTopic(current, genres), maxTopicChars),
		Tags:             shorten(tags, maxTagsChars),
		NegativeTags:     shorten(strings.Join(cfg.AvoidTags, ", "), maxTagsChars),
		MakeInstrumental: !cfg.Vocals,
		Model:            cfg.SunoModel,
	}
	if cfg.Vocals {
		req.Prompt = shorten(fallbackLyrics(cfg.SillyMode), maxLyricsChars)
	}
	return req
}

func buildTopic(current ContextSummary, genres []string) string {
	activity := current.Detail
	if activity == "" {
		activity = strings.ReplaceAll(current.Tag, "-", " ")
	}
	genre := "ambient"
	if len(genres) > 0 {
		genre = genres[0]
	}
	topic := fmt.Sprintf(
		"Background %s music supporting the user's current activity: %s. "+
			"Steady, unobtrusive, and focused, with a tempo and mood that match the task rather than distract from it.",
		genre, activity)
	if current.App != "" {
		topic += fmt.Sprintf(" The user is working in %s.", current.App)
	}
	return topic
}

// pickGenres prefers genres not used recently; when every preference is
// recent, the least recently used ones are taken so output still varies.
func pickGenres(preferred, recent []string, n int) []string {
	if n < 1 || len(preferred) == 0 {
		return nil
	}
	recentSet := make(map[string]bool, len(recent))
	for _, g := range recent {
		recentSet[strings.ToLower(strings.TrimSpace(g))] = true
	}

	var fresh, used []string
	for _, g := range preferred {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if recentSet[strings.ToLower(g)] {
			used = append(used, g)
		} else {
			fresh = append(fresh, g)
		}
	}

	out := fresh
	// When every preference was used recently, fill from the back of the
	// preference list so consecutive requests still rotate.
	for i := len(used) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, used[i])
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// extractPrimaryGenres takes the first one or two comma-separated items of a
// tags string as the primary genres.
func extractPrimaryGenres(tags string) []string {
	var out []string
	for _, part := range strings.Split(tags, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
		if len(out) == 2 {
			break
		}
	}
	return out
}

func shorten(s string, max int) string {
	if len(s) <= max {
		return s
	}
	take := max - 3
	if take < 0 {
		take = 0
	}
	return s[:take] + "..."
}

func fallbackLyrics(silly bool) string {
	if silly {
		return "Verse 1:\nOn my screen the windows dance, tabs and tasks collide\n" +
			"Shortcut sparks and midnight marks, pixels as my guide\n" +
			"Chorus:\nClick clack, bring the groove back, let the workflow sing\n" +
			"Laughing through the chaos while I do my thing\n"
	}
	return "Verse 1:\nDrafting dreams in quiet rooms, chasing melody\n" +
		"Finding light in steady lines, calm complexity\n" +
		"Chorus:\nPull me closer, hold the moment, let the night begin\n" +
		"In the hush between these pages, I can breathe again\n"
}
