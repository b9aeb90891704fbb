// Package cliui provides shared terminal styles for ssetap commands.
package cliui

import (
	"fmt"
	"io"
	"os"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/colorprofile"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")

	KeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	DimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	// EventStyle renders the "event:" name of a parsed record.
	EventStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
)

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// Writer wraps w so styled output is downsampled to what w supports. Styles
// are stripped entirely when w is not a terminal.
func Writer(w io.Writer) io.Writer {
	return colorprofile.NewWriter(w, os.Environ())
}

// Printf writes styled, formatted output to stdout.
func Printf(format string, args ...any) {
	Fprintf(os.Stdout, format, args...)
}

// Fprintf writes styled, formatted output to w.
func Fprintf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(Writer(w), format, args...)
}
