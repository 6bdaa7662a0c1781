package repl

import (
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

const (
	prompt         = "> "
	continuePrompt = "...> "
)

// Run reads commands until EOF, or until ctrl-c is pressed with nothing
// pending. Pressing ctrl-c with a pending command only clears it.
func (s *Session) Run(historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if s.Pending() {
					s.Reset()
					rl.SetPrompt(prompt)
					fmt.Fprint(rl.Stderr(), "Press ctrl-c again to quit.\n")
					continue
				}
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		out, more, err := s.Feed(line)
		if more {
			rl.SetPrompt(continuePrompt)
			continue
		}
		rl.SetPrompt(prompt)
		if err != nil {
			fmt.Fprintln(rl.Stderr(), err)
			continue
		}
		if out != "" {
			fmt.Fprintln(rl.Stdout(), out)
		}
	}
}
