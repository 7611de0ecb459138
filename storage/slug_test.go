package storage

import (
	"errors"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Focus Timer Pro", "focus-timer-pro"},
		{"  --Hello,   World!--  ", "hello-world"},
		{"Café Finder 2", "caf-finder-2"},
		{"com.example.app", "com-example-app"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAssignSlug(t *testing.T) {
	held := map[string]string{
		"notes":     "111",
		"todo":      "10",
		"todo-20":   "99",
		"todo-20-2": "98",
		"timer":     "5",
		"timer-6":   "6",
	}
	owner := func(slug string) (string, bool, error) {
		id, ok := held[slug]
		return id, ok, nil
	}

	tests := []struct {
		name, appID, want string
	}{
		{"Notes", "111", "notes"},
		{"Notes", "222", "notes-222"},
		{"Notes", "com.other.notes", "notes-com-other-notes"},
		{"Sketch", "333", "sketch"},
		{"???", "444", "444"},
		{"Todo", "20", "todo-20-3"},
		{"Timer", "6", "timer-6"},
	}
	for _, tt := range tests {
		got, err := assignSlug(tt.name, tt.appID, owner)
		if err != nil {
			t.Fatalf("assignSlug(%q, %q): %v", tt.name, tt.appID, err)
		}
		if got != tt.want {
			t.Errorf("assignSlug(%q, %q) = %q, want %q", tt.name, tt.appID, got, tt.want)
		}
	}

	boom := errors.New("boom")
	_, err := assignSlug("Notes", "1", func(string) (string, bool, error) { return "", false, boom })
	if !errors.Is(err, boom) {
		t.Errorf("want lookup error, got %v", err)
	}
}
