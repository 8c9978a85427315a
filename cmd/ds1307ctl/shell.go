package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/google/shlex"
)

const prompt = "rtc> "

// shell runs commands read from in, one per line, until EOF, "exit" or
// ctx is done. Errors are printed and do not end the session.
func (a *app) shell(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(a.out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return scanner.Err()
		}
		args, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintln(a.out, "error:", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "exit", "quit":
			return nil
		case "shell":
			fmt.Fprintln(a.out, "error: already in a shell")
			continue
		}
		if err := a.exec(ctx, args); err != nil {
			fmt.Fprintln(a.out, "error:", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
