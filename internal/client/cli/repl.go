package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL drives. App satisfies it;
// tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, email string) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Check(ctx context.Context) error
	Get(ctx context.Context, path string) error
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code string) error
}

// runREPL reads commands from r until EOF, "exit"/"quit", or ctx is done.
// The latter happens when the session ends: the remaining input is
// abandoned.
//
//	Signed out:
//	  help, login [email], otp-request <email>, otp-verify <email> <code>,
//	  reset-password <email> <code>, status, exit | quit
//
//	Signed in:
//	  help, status, check, get <path>, logout, exit | quit
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}

		fmt.Fprintf(w, "lk (%s)> ", statusFn())
		line, err := r.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(w)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: status, check, get <path>, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: login [email], otp-request <email>, otp-verify <email> <code>, reset-password <email> <code>, status, exit")
			}

		case "login":
			email := ""
			if len(args) > 0 {
				email = args[0]
			}
			cmdErr = a.Login(ctx, email)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "check":
			cmdErr = a.Check(ctx)

		case "get":
			if len(args) != 1 {
				fmt.Fprintln(w, "Usage: get <path>")
				continue
			}
			cmdErr = a.Get(ctx, args[0])

		case "otp-request":
			if len(args) != 1 {
				fmt.Fprintln(w, "Usage: otp-request <email>")
				continue
			}
			cmdErr = a.RequestOTP(ctx, args[0])

		case "otp-verify":
			if len(args) != 2 {
				fmt.Fprintln(w, "Usage: otp-verify <email> <code>")
				continue
			}
			cmdErr = a.VerifyOTP(ctx, args[0], args[1])

		case "reset-password":
			if len(args) != 2 {
				fmt.Fprintln(w, "Usage: reset-password <email> <code>")
				continue
			}
			cmdErr = a.ResetPassword(ctx, args[0], args[1])

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil && !errors.Is(cmdErr, ErrSessionEnded) && ctx.Err() == nil {
			fmt.Fprintln(w, "Error:", cmdErr)
		}
	}
}
