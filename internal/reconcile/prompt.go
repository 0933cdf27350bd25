package reconcile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Question is one interactive prompt.
type Question struct {
	// Before is printed (bold) ahead of the content.
	Before string

	// After is the prompt line the answer is typed on.
	After string

	// Content is the body shown to the user (diff, observations, errors).
	Content string

	// Options are the accepted answers. The last option is the default.
	Options []string

	// Shortcuts holds one single-character alias per option; each must
	// appear within its option.
	Shortcuts []string
}

// Prompter asks the user a question and returns one of its options.
type Prompter interface {
	Ask(q Question) (string, error)
}

// ConsolePrompter asks questions on a text console.
type ConsolePrompter struct {
	in     *bufio.Reader
	file   *os.File // set when reading from a real file, for tty detection
	output *termenv.Output
}

// NewConsolePrompter creates a prompter reading answers from in and
// writing prompts to out. Bold styling is applied only when out is a
// terminal.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	p := &ConsolePrompter{
		in:     bufio.NewReader(in),
		output: termenv.NewOutput(out),
	}
	if f, ok := in.(*os.File); ok {
		p.file = f
	}
	return p
}

// Ask implements Prompter.
//
// An empty answer selects the default (last) option. A single character
// selects the option with that shortcut; a full word selects the option
// with that name. Anything else selects the default.
func (p *ConsolePrompter) Ask(q Question) (string, error) {
	if len(q.Options) == 0 {
		return "", errors.New("prompt has no options")
	}
	if p.file != nil && !term.IsTerminal(int(p.file.Fd())) {
		return "", ErrNoTerminal
	}

	before, after := q.Before, q.After
	if before != "" && after == "" {
		// The answer is read after the last line, so use it for the prompt.
		before, after = "", before
	}
	if before != "" {
		fmt.Fprintln(p.output, p.bold(before))
	}
	if q.Content != "" {
		fmt.Fprintln(p.output, strings.TrimRight(q.Content, "\n"))
	}

	labels := make([]string, len(q.Options))
	for i, opt := range q.Options {
		labels[i] = opt
		if i < len(q.Shortcuts) {
			labels[i] = strings.Replace(opt, q.Shortcuts[i], "["+q.Shortcuts[i]+"]", 1)
		}
	}
	labels[len(labels)-1] = p.bold(labels[len(labels)-1])
	fmt.Fprintf(p.output, "%s (%s): ", p.bold(after), strings.Join(labels, " | "))

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return choose(q, strings.TrimSpace(line)), nil
}

func (p *ConsolePrompter) bold(s string) string {
	return p.output.String(s).Bold().String()
}

// choose maps a raw answer onto one of the question's options.
func choose(q Question, answer string) string {
	def := q.Options[len(q.Options)-1]
	switch {
	case answer == "":
		return def
	case len(answer) == 1:
		for i, sc := range q.Shortcuts {
			if sc == answer && i < len(q.Options) {
				return q.Options[i]
			}
		}
	default:
		for _, opt := range q.Options {
			if opt == answer {
				return opt
			}
		}
	}
	return def
}
