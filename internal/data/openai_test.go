package data

import (
	"testing"
)

func TestParseProcessResultCleanJSON(t *testing.T) {
	text := `{"summary": "They planned the launch.", "reply": "Sounds good!", "needs_more_information": false, "new_todos": ["confirm date"]}`

	result := ParseProcessResult(text)
	if result.Summary != "They planned the launch." {
		t.Errorf("Summary = %q", result.Summary)
	}
	if result.Reply != "Sounds good!" {
		t.Errorf("Reply = %q", result.Reply)
	}
	if result.NeedsMoreInfo {
		t.Error("NeedsMoreInfo should be false")
	}
	if len(result.NewTasks) != 1 || result.NewTasks[0] != "confirm date" {
		t.Errorf("NewTasks = %v", result.NewTasks)
	}
}

func TestParseProcessResultProseWrapped(t *testing.T) {
	text := "Here is the result you asked for:\n\n" +
		`{"summary": "Short recap.", "todo_updates": [{"id": 3, "status": "done", "note": "resolved"}]}` +
		"\n\nLet me know if you need anything else."

	result := ParseProcessResult(text)
	if result.Summary != "Short recap." {
		t.Errorf("Summary = %q", result.Summary)
	}
	if len(result.TaskUpdates) != 1 {
		t.Fatalf("TaskUpdates = %v", result.TaskUpdates)
	}
	if result.TaskUpdates[0].ID != 3 || result.TaskUpdates[0].Status != "done" {
		t.Errorf("Unexpected update %+v", result.TaskUpdates[0])
	}
}

func TestParseProcessResultBracesInsideStrings(t *testing.T) {
	text := `{"summary": "They wrote {code} with \"quotes\" in it.", "reply": null}`

	result := ParseProcessResult(text)
	if result.Summary != `They wrote {code} with "quotes" in it.` {
		t.Errorf("Summary = %q", result.Summary)
	}
}

func TestParseProcessResultDegradedFallback(t *testing.T) {
	text := "  The model rambled and produced no JSON at all.  "

	result := ParseProcessResult(text)
	if result.Summary != "The model rambled and produced no JSON at all." {
		t.Errorf("Summary = %q", result.Summary)
	}
	if result.Reply != "" || len(result.TaskUpdates) != 0 || len(result.NewTasks) != 0 {
		t.Error("Degraded result must carry only the raw text as summary")
	}
}

func TestParseProcessResultMalformedJSONFallsBack(t *testing.T) {
	text := `{"summary": "unterminated`

	result := ParseProcessResult(text)
	if result.Summary != `{"summary": "unterminated` {
		t.Errorf("Summary = %q", result.Summary)
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"nested object", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"prefix and suffix", `noise {"a": 1} trailing`, `{"a": 1}`},
		{"first of two", `{"a": 1} {"b": 2}`, `{"a": 1}`},
		{"brace in string", `{"a": "}"}`, `{"a": "}"}`},
		{"escaped quote", `{"a": "\"}"}`, `{"a": "\"}"}`},
		{"no object", "plain text", ""},
		{"unbalanced", `{"a": 1`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSONObject(tt.in); got != tt.want {
				t.Errorf("extractJSONObject(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
