// Package cliio holds the small terminal input/output helpers shared
// by the commands: confirmation prompts and tab-aligned tables.
package cliio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/skaphos/fleetpull/internal/tableutil"
)

// Confirm asks a yes/no question and reads one response line. The
// " [y/N]: " suffix is appended here so every prompt defaults to no;
// only an explicit y/yes confirms. EOF counts as a decline.
func Confirm(out io.Writer, in io.Reader, question string) (bool, error) {
	if _, err := fmt.Fprint(out, question+" [y/N]: "); err != nil {
		return false, err
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes", nil
}

// WriteTable renders rows through a column-aligning writer. colorized
// marks cells as carrying tabwriter-escaped ANSI sequences, which the
// writer then strips from width accounting.
func WriteTable(out io.Writer, colorized bool, noHeaders bool, headers []string, rows [][]string) error {
	w := tableutil.New(out, colorized)
	lines := rows
	if !noHeaders {
		lines = append([][]string{headers}, rows...)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, strings.Join(line, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}
