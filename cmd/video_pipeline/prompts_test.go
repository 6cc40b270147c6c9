package main

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func scannerFor(input string) *bufio.Scanner {
	return bufio.NewScanner(strings.NewReader(input))
}

func TestPromptTitlePicksSuggestion(t *testing.T) {
	var out bytes.Buffer
	title, err := promptTitle(scannerFor("2\n\n"), &out, []string{"Alpha", "Beta"})
	if err != nil {
		t.Fatalf("promptTitle: %v", err)
	}
	if title != "Beta" {
		t.Fatalf("expected Beta, got %q", title)
	}
	mustContain(t, out.String(), "Suggested titles:")
	mustContain(t, out.String(), "1. Alpha")
	mustContain(t, out.String(), "2. Beta")
	mustContain(t, out.String(), "Selected title: Beta")
}

func TestPromptTitleInlineEdit(t *testing.T) {
	var out bytes.Buffer
	title, err := promptTitle(scannerFor("1\nBetter Name\n"), &out, []string{"Alpha"})
	if err != nil {
		t.Fatalf("promptTitle: %v", err)
	}
	if title != "Better Name" {
		t.Fatalf("expected edited title, got %q", title)
	}
	mustContain(t, out.String(), "Edit title (press Enter to keep the above): ")
}

func TestPromptTitleCustomEntry(t *testing.T) {
	var out bytes.Buffer
	title, err := promptTitle(scannerFor("0\nMy Custom\n\n"), &out, []string{"Alpha"})
	if err != nil {
		t.Fatalf("promptTitle: %v", err)
	}
	if title != "My Custom" {
		t.Fatalf("expected custom title, got %q", title)
	}
	mustContain(t, out.String(), "Enter your custom title: ")
}

func TestPromptTitleRetriesOnBadInput(t *testing.T) {
	var out bytes.Buffer
	title, err := promptTitle(scannerFor("abc\n9\n1\n\n"), &out, []string{"Alpha", "Beta"})
	if err != nil {
		t.Fatalf("promptTitle: %v", err)
	}
	if title != "Alpha" {
		t.Fatalf("expected Alpha after retries, got %q", title)
	}
	mustContain(t, out.String(), "Please enter a valid number.")
	mustContain(t, out.String(), "Please enter a number between 1 and 2, or 0 for custom title.")
}

func TestPromptTitleWithoutSuggestions(t *testing.T) {
	var out bytes.Buffer
	title, err := promptTitle(scannerFor("Fresh Title\n\n"), &out, nil)
	if err != nil {
		t.Fatalf("promptTitle: %v", err)
	}
	if title != "Fresh Title" {
		t.Fatalf("expected custom title, got %q", title)
	}
	mustContain(t, out.String(), "No suggested titles found.")
}

func TestPromptYesNo(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"n\n", false},
		{"\n", false},
		{"yes\n", false},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		got, err := promptYesNo(scannerFor(tc.input), &out, "Proceed with upload? (y/N): ")
		if err != nil {
			t.Fatalf("promptYesNo(%q): %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("promptYesNo(%q) = %v, want %v", tc.input, got, tc.want)
		}
		mustContain(t, out.String(), "Proceed with upload? (y/N): ")
	}
}

func TestPromptYesNoClosedInput(t *testing.T) {
	var out bytes.Buffer
	_, err := promptYesNo(scannerFor(""), &out, "Proceed? ")
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
}

func TestEditorFieldsFallback(t *testing.T) {
	t.Setenv("EDITOR", "")
	fields := editorFields()
	if len(fields) != 1 || fields[0] != "nano" {
		t.Fatalf("expected nano fallback, got %v", fields)
	}

	t.Setenv("EDITOR", "code --wait")
	fields = editorFields()
	if len(fields) != 2 || fields[0] != "code" || fields[1] != "--wait" {
		t.Fatalf("expected split editor command, got %v", fields)
	}
	if editorDisplayName() != "code" {
		t.Fatalf("expected display name code, got %q", editorDisplayName())
	}
}
