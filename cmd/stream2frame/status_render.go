package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stream2frame/internal/status"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 14
	statusIndent     = "  "
)

var titleCaser = cases.Title(language.English)

// humanizeState turns an all-caps status value into a display label, e.g.
// "PROCESSING" becomes "Processing".
func humanizeState(state status.State) string {
	return titleCaser.String(strings.ToLower(string(state)))
}

func stateColor(state status.State) string {
	switch state {
	case status.StateCompleted:
		return ansiGreen
	case status.StateProcessing, status.StateQueued:
		return ansiBlue
	case status.StateInterrupted:
		return ansiYellow
	case status.StateFailed, status.StateError:
		return ansiRed
	default:
		return ""
	}
}

func renderStatusLine(label, value string, color string, colorize bool) string {
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", value)
	if colorize && color != "" {
		return color + base + ansiReset
	}
	return base
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
