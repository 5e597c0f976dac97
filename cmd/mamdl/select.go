package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pedroespecial101/mam-downloader/internal/rank"
)

// renderChoice formats one ranked result for the selection prompt.
func renderChoice(index int, s rank.Scored) string {
	c := s.Candidate

	line := fmt.Sprintf("%2d. [%s] %s", index, c.ID, c.Title)

	if authors := c.Authors(); len(authors) > 0 {
		line += " by " + strings.Join(authors, ", ")
	}

	if size := c.DisplaySize(); size != "" {
		line += " (" + size + ")"
	}

	return fmt.Sprintf("%s [score: %.2f]", line, s.Score)
}

// parseChoice interprets one line of user input against n choices.
// Returns the zero-based index, or ok=false for a cancel ('q'), or an
// error for anything unusable.
func parseChoice(input string, n int) (int, bool, error) {
	input = strings.TrimSpace(input)

	if strings.EqualFold(input, "q") {
		return 0, false, nil
	}

	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > n {
		return 0, false, fmt.Errorf("invalid choice %q", input)
	}

	return choice - 1, true, nil
}

// promptSelection shows the ranked results and reads a selection from in.
// Returns the chosen index, or ok=false when the user cancels.
func promptSelection(in io.Reader, out io.Writer, ranked []rank.Scored) (int, bool) {
	fmt.Fprintln(out, "\nTop results:")

	for i, s := range ranked {
		fmt.Fprintln(out, renderChoice(i+1, s))
	}

	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "Enter number to download, or Q to cancel: ")

		if !scanner.Scan() {
			return 0, false
		}

		input := scanner.Text()
		if strings.TrimSpace(input) == "" {
			continue
		}

		idx, ok, err := parseChoice(input, len(ranked))
		if err != nil {
			fmt.Fprintln(out, "Invalid choice, try again.")

			continue
		}

		return idx, ok
	}
}
