package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// promptTitle walks the operator through picking one of the suggested
// titles or entering a custom one, followed by an inline edit pass.
func promptTitle(scan *bufio.Scanner, out io.Writer, titles []string) (string, error) {
	var selected string

	if len(titles) == 0 {
		fmt.Fprintln(out, "No suggested titles found.")
		fmt.Fprint(out, "Enter your custom title: ")
		line, err := readLine(scan)
		if err != nil {
			return "", err
		}
		selected = strings.TrimSpace(line)
	} else {
		fmt.Fprintln(out, "Suggested titles:")
		for i, title := range titles {
			fmt.Fprintf(out, "%d. %s\n", i+1, title)
		}
		for {
			fmt.Fprint(out, "Enter the number of your preferred title (or 0 to enter a custom title): ")
			line, err := readLine(scan)
			if err != nil {
				return "", err
			}
			choice, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil {
				fmt.Fprintln(out, "Please enter a valid number.")
				continue
			}
			if choice == 0 {
				fmt.Fprint(out, "Enter your custom title: ")
				custom, err := readLine(scan)
				if err != nil {
					return "", err
				}
				selected = strings.TrimSpace(custom)
				break
			}
			if choice < 1 || choice > len(titles) {
				fmt.Fprintf(out, "Please enter a number between 1 and %d, or 0 for custom title.\n", len(titles))
				continue
			}
			selected = titles[choice-1]
			break
		}
	}

	fmt.Fprintf(out, "Selected title: %s\n", selected)
	fmt.Fprint(out, "Edit title (press Enter to keep the above): ")
	edited, err := readLine(scan)
	if err != nil {
		return "", err
	}
	if trimmed := strings.TrimSpace(edited); trimmed != "" {
		selected = trimmed
	}
	return selected, nil
}

// promptYesNo asks once and defaults to no; only y confirms.
func promptYesNo(scan *bufio.Scanner, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	line, err := readLine(scan)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(line), "y"), nil
}

func readLine(scan *bufio.Scanner) (string, error) {
	if !scan.Scan() {
		if err := scan.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return scan.Text(), nil
}

// editorFields resolves the description editor from $EDITOR, which may
// carry arguments, falling back to nano.
func editorFields() []string {
	fields := strings.Fields(strings.TrimSpace(os.Getenv("EDITOR")))
	if len(fields) == 0 {
		return []string{"nano"}
	}
	return fields
}

func editorDisplayName() string {
	return editorFields()[0]
}

func openInEditor(ctx context.Context, path string) error {
	fields := editorFields()
	args := make([]string, 0, len(fields))
	args = append(args, fields[1:]...)
	args = append(args, path)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
