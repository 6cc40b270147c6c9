package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var statusStyles = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

func (k statusKind) style() (label, color string) {
	if s, ok := statusStyles[k]; ok {
		return s.label, s.color
	}
	return statusStyles[statusInfo].label, statusStyles[statusInfo].color
}

// renderStatusLine formats a single check result as an indented, aligned
// line like "  Whisper:            [OK] whisper 1.5".
func renderStatusLine(label string, kind statusKind, detail string, colorize bool) string {
	kindLabel, color := kind.style()
	status := "[" + kindLabel + "]"
	if detail != "" {
		status += " " + detail
	}
	line := fmt.Sprintf("  %-24s %s", label+":", status)
	if colorize && color != "" {
		return color + line + ansiReset
	}
	return line
}

func renderSectionHeader(title string, colorize bool) string {
	head := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(head))
	if colorize {
		head = ansiBlue + head + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return head + "\n" + rule
}

// isTerminal reports whether the writer is an interactive terminal. It
// gates both ANSI colors and the progress bar.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
