package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/leasekeeper/internal/buildinfo"
	"github.com/dmitrijs2005/leasekeeper/internal/client/config"
	"github.com/spf13/cobra"
)

// runner owns the App created for the executing command.
type runner struct {
	cfg    *config.Config
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	app *App
	ctx context.Context
}

// Execute runs the console with args (without the program name) and returns
// the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	r := &runner{cfg: config.LoadConfig(args), in: in, out: out, errOut: errOut}

	root := r.rootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)

	ended := r.sessionEnded()
	if r.app != nil {
		if cerr := r.app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	switch {
	case err == nil:
		return 0
	case ended || errors.Is(err, ErrSessionEnded):
		// the navigator already told the user
		return 1
	default:
		fmt.Fprintln(errOut, "Error:", err)
		return 1
	}
}

func (r *runner) sessionEnded() bool {
	return r.ctx != nil && errors.Is(context.Cause(r.ctx), ErrSessionEnded)
}

func (r *runner) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "leasekeeper",
		Short:         "Property-management console",
		Long:          "leasekeeper signs you in to the property-management API and keeps the session alive.",
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app, err := NewApp(cmd.Context(), r.cfg, r.in, r.out, r.errOut)
			if err != nil {
				return err
			}
			r.app = app
			r.ctx = app.Boot(cmd.Context())
			cmd.SetContext(r.ctx)
			return nil
		},
	}
	root.SetIn(r.in)
	root.SetOut(r.out)
	root.SetErr(r.errOut)
	config.RegisterFlags(root.PersistentFlags(), r.cfg)

	root.AddCommand(
		r.loginCommand(),
		r.simpleCommand("logout", "End the session", func(ctx context.Context, a *App) error { return a.Logout(ctx) }),
		r.simpleCommand("status", "Show session state", func(ctx context.Context, a *App) error { return a.Status(ctx) }),
		r.simpleCommand("check", "Re-verify the stored token", func(ctx context.Context, a *App) error { return a.Check(ctx) }),
		r.getCommand(),
		r.sendCommand(),
		r.otpCommand(),
		r.resetPasswordCommand(),
		r.shellCommand(),
	)
	return root
}

func (r *runner) simpleCommand(use, short string, run func(ctx context.Context, a *App) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), r.app)
		},
	}
}

func (r *runner) loginCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Login(cmd.Context(), email)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when omitted)")
	return cmd
}

func (r *runner) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "get <path>",
		Short:   "Fetch an API resource",
		Example: "  leasekeeper get /properties/",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Get(cmd.Context(), args[0])
		},
	}
}

func (r *runner) sendCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "send <method> <path> [json-body]",
		Short:   "Write to an API resource",
		Example: "  leasekeeper send post /properties/ '{\"name\": \"Oak Court\"}'",
		Args:    cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := ""
			if len(args) == 3 {
				body = args[2]
			}
			return r.app.Send(cmd.Context(), args[0], args[1], body)
		},
	}
}

func (r *runner) otpCommand() *cobra.Command {
	otp := &cobra.Command{
		Use:   "otp",
		Short: "One-time codes for password reset",
	}
	otp.AddCommand(
		&cobra.Command{
			Use:   "request <email>",
			Short: "Send a one-time code to email",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return r.app.RequestOTP(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "verify <email> <code>",
			Short: "Check a one-time code",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return r.app.VerifyOTP(cmd.Context(), args[0], args[1])
			},
		},
	)
	return otp
}

func (r *runner) resetPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <email> <code>",
		Short: "Set a new password using a one-time code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.ResetPassword(cmd.Context(), args[0], args[1])
		},
	}
}

func (r *runner) shellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := r.app
			fmt.Fprintln(a.out, "leasekeeper console (type 'help' for commands)")
			runREPL(cmd.Context(), a, func() string { return a.auth.State().String() }, a.in, a.out)
			return nil
		},
	}
}
