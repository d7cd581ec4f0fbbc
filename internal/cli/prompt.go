package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// errNoInput is returned when stdin closes before an answer was given.
var errNoInput = errors.New("no input")

// readLine reads one trimmed line. A final line without a newline counts.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errNoInput
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptLine asks for a value, returning def on an empty answer.
func promptLine(r *bufio.Reader, out io.Writer, label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}
	v, err := readLine(r)
	if err != nil {
		return "", err
	}
	if v == "" {
		return def, nil
	}
	return v, nil
}

// promptBool asks a yes/no question until it gets a usable answer.
func promptBool(r *bufio.Reader, out io.Writer, label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(out, "%s [%s]: ", label, hint)
		v, err := readLine(r)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(v) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(out, "  Please answer y or n.")
	}
}

// promptInt asks for a positive integer.
func promptInt(r *bufio.Reader, out io.Writer, label string, def int) (int, error) {
	for {
		v, err := promptLine(r, out, label, strconv.Itoa(def))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 {
			return n, nil
		}
		fmt.Fprintf(out, "  %q is not a positive number.\n", v)
	}
}

// promptChoice asks for one of choices, accepting the value or its 1-based
// index.
func promptChoice(r *bufio.Reader, out io.Writer, label string, choices []string, def string) (string, error) {
	for {
		fmt.Fprintf(out, "%s:\n", label)
		for i, c := range choices {
			marker := " "
			if c == def {
				marker = "*"
			}
			fmt.Fprintf(out, " %s %d. %s\n", marker, i+1, c)
		}
		v, err := promptLine(r, out, "Choose", def)
		if err != nil {
			return "", err
		}
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= len(choices) {
			return choices[n-1], nil
		}
		for _, c := range choices {
			if strings.EqualFold(v, c) {
				return c, nil
			}
		}
		fmt.Fprintln(out, "  Invalid choice, please try again.")
	}
}

// promptPassword reads a secret without echo when stdin is a terminal, and
// as a plain line otherwise (pipes, tests).
func promptPassword(r *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprintf(out, "%s: ", label)
	fd := int(os.Stdin.Fd())
	if r.Buffered() == 0 && term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	return readLine(r)
}
