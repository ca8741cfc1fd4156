// Package main provides an announcer plugin for macOS. It speaks judgment
// feedback aloud via the system voice so players can keep their eyes on the
// play area.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
	Config json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Resolution is one scored note.
type Resolution struct {
	NoteID string `json:"note_id"`
	Grade  int    `json:"grade"`
}

// Summary is the end-of-run result.
type Summary struct {
	Summary struct {
		Score    int     `json:"score"`
		MaxCombo int     `json:"max_combo"`
		Accuracy float64 `json:"accuracy"`
	} `json:"summary"`
}

// gradeNames maps grade values to spoken words.
var gradeNames = map[int]string{
	0: "miss",
	1: "good",
	2: "great",
	3: "perfect",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	switch req.Event {
	case "resolution":
		if err := announceResolution(req.Data); err != nil {
			writeErrorResponse(fmt.Sprintf("event %s failed: %v", req.Event, err))
			return
		}
	case "summary":
		if err := announceSummary(req.Data); err != nil {
			writeErrorResponse(fmt.Sprintf("event %s failed: %v", req.Event, err))
			return
		}
	default:
		writeErrorResponse(fmt.Sprintf("unknown event: %s", req.Event))
		return
	}

	writeSuccessResponse()
}

// announceResolution speaks the grade of one scored note.
func announceResolution(data json.RawMessage) error {
	var res Resolution
	if err := json.Unmarshal(data, &res); err != nil {
		return fmt.Errorf("failed to parse resolution: %w", err)
	}

	name, ok := gradeNames[res.Grade]
	if !ok {
		return fmt.Errorf("unknown grade: %d", res.Grade)
	}
	return speak(name)
}

// announceSummary speaks the final score and accuracy of a run.
func announceSummary(data json.RawMessage) error {
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to parse summary: %w", err)
	}

	phrase := fmt.Sprintf("Run complete. Score %d, accuracy %.0f percent, max combo %d.",
		s.Summary.Score, s.Summary.Accuracy, s.Summary.MaxCombo)
	return speak(phrase)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{
		Success: false,
		Error:   errMsg,
	})
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

// speak pronounces the given text via the macOS system voice.
func speak(text string) error {
	cmd := exec.Command("say", text)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
