// Package app wires the interactive hub console: session store, identity
// provider, relay client and the authentication flow behind a small
// line-oriented prompt.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/aussiebroadwan/iothub/internal/console/flow"
	"github.com/aussiebroadwan/iothub/internal/console/provider"
	consolesession "github.com/aussiebroadwan/iothub/internal/console/session"
	"github.com/aussiebroadwan/iothub/pkg/relaysdk"
	"github.com/aussiebroadwan/iothub/pkg/slogx"
)

const BuildVersion = "v0.1.0"

type Application struct {
	cfg    Config
	logger *slog.Logger

	store *consolesession.Store
	relay *relaysdk.Client
	flow  *flow.Flow

	in  *bufio.Reader
	out io.Writer
}

func New(cfg Config) (*Application, error) {
	logger := slogx.New(slogx.Config{
		Service: "iothub-console",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	if cfg.ClientID == "" {
		return nil, errors.New("COGNITO_CLIENT_ID is required")
	}

	store, err := consolesession.Open(cfg.SessionDBPath, cfg.SessionKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	sess, err := session.NewSession()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	idp := provider.NewCognito(sess, cfg.ClientID, store, logger)
	relay := relaysdk.NewClient(cfg.RelayURL)

	return &Application{
		cfg:    cfg,
		logger: logger,
		store:  store,
		relay:  relay,
		flow:   flow.New(idp, relay, cfg.Issuer, logger),
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

// Run probes for an existing session and enters the prompt loop.
func (a *Application) Run(ctx context.Context) error {
	defer a.store.Close()

	a.printf("iothub console %s\n", BuildVersion)
	a.printf("checking session...\n")

	if a.flow.Probe(ctx) == flow.StateAuthenticated {
		a.printf("signed in as %s\n", a.flow.Username())
	} else {
		a.printf("not signed in, use 'signin' to authenticate\n")
	}

	for {
		a.printf("%s> ", a.flow.State())
		line, err := a.in.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.printf("\n")
				return nil
			}
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if done := a.handle(ctx, fields[0], fields[1:]); done {
			return nil
		}
	}
}

// handle runs one command. It returns true when the loop should exit.
func (a *Application) handle(ctx context.Context, cmd string, args []string) bool {
	var err error

	switch cmd {
	case "exit", "quit":
		return true

	case "help":
		a.printHelp()

	case "status":
		a.printf("state: %s\n", a.flow.State())
		if a.flow.Username() != "" {
			a.printf("user:  %s\n", a.flow.Username())
		}

	case "signin":
		err = a.signIn(ctx)

	case "signout":
		err = a.flow.SignOut(ctx)
		if err == nil {
			a.printf("signed out\n")
		}

	case "reset":
		err = a.startReset(ctx)

	case "led":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			a.printf("usage: led on|off\n")
			return false
		}
		err = a.sendCommand(ctx, a.cfg.LEDTopic, strings.ToUpper(args[0]))

	case "send":
		if len(args) < 2 {
			a.printf("usage: send <topic> <message>\n")
			return false
		}
		err = a.sendCommand(ctx, args[0], strings.Join(args[1:], " "))

	default:
		a.printf("unknown command %q, try 'help'\n", cmd)
	}

	// EOF is not an error to report; the main loop sees it next read and
	// exits cleanly.
	if err != nil && !errors.Is(err, io.EOF) {
		a.printf("error: %v\n", err)
	}
	return false
}

// signIn collects credentials and walks every challenge the provider
// raises until the flow settles in a terminal state.
func (a *Application) signIn(ctx context.Context) error {
	username, err := a.prompt("username: ")
	if err != nil {
		return err
	}
	password, err := a.prompt("password: ")
	if err != nil {
		return err
	}

	if err := a.flow.SignIn(ctx, username, password); err != nil {
		return err
	}
	return a.resolveChallenges(ctx)
}

// resolveChallenges keeps prompting for whatever the current challenge
// state needs. One submission is in flight at a time; a rejected answer
// leaves the state in place so the prompt simply repeats. A dead input
// or a canceled context ends the walk the same way the main loop exits.
func (a *Application) resolveChallenges(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch a.flow.State() {
		case flow.StateAuthenticated:
			a.printf("signed in as %s\n", a.flow.Username())
			return nil

		case flow.StateUnauthenticated:
			return nil

		case flow.StateNewPasswordRequired:
			a.printf("a new password is required\n")
			newPassword, err := a.prompt("new password: ")
			if err != nil {
				return err
			}
			confirm, err := a.prompt("confirm password: ")
			if err != nil {
				return err
			}
			if err := a.flow.ConfirmNewPassword(ctx, newPassword, confirm); err != nil {
				a.printf("error: %v\n", err)
			}

		case flow.StateTotpSetupRequired:
			enrollment := a.flow.Enrollment()
			a.printf("register this secret with your authenticator app:\n")
			a.printf("  secret: %s\n", enrollment.SharedSecret)
			a.printf("  uri:    %s\n", enrollment.URI)
			code, err := a.prompt("code: ")
			if err != nil {
				return err
			}
			if err := a.flow.SubmitTotpCode(ctx, code); err != nil {
				a.printf("error: %v\n", err)
			}

		case flow.StateTotpVerificationRequired:
			code, err := a.prompt("totp code: ")
			if err != nil {
				return err
			}
			if err := a.flow.SubmitTotpCode(ctx, code); err != nil {
				a.printf("error: %v\n", err)
			}

		case flow.StatePasswordResetInProgress:
			a.printf("a verification code has been sent to your email\n")
			code, err := a.prompt("code: ")
			if err != nil {
				return err
			}
			newPassword, err := a.prompt("new password: ")
			if err != nil {
				return err
			}
			confirm, err := a.prompt("confirm password: ")
			if err != nil {
				return err
			}
			if err := a.flow.ConfirmReset(ctx, code, newPassword, confirm); err != nil {
				a.printf("error: %v\n", err)
			} else {
				a.printf("password reset, sign in with your new password\n")
			}

		default:
			return nil
		}
	}
}

func (a *Application) startReset(ctx context.Context) error {
	username := a.flow.Username()
	if username == "" {
		var err error
		if username, err = a.prompt("username: "); err != nil {
			return err
		}
	}

	if err := a.flow.StartReset(ctx, username); err != nil {
		return err
	}
	return a.resolveChallenges(ctx)
}

func (a *Application) sendCommand(ctx context.Context, topic, message string) error {
	if a.flow.State() != flow.StateAuthenticated {
		return errors.New("sign in before sending commands")
	}

	published, err := a.relay.SendCommand(ctx, topic, message)
	if err != nil {
		return err
	}
	a.printf("published %q to %s\n", published.Message, published.Topic)
	return nil
}

// prompt reads one answer. A read failure (EOF included) propagates so
// challenge loops stop instead of re-asking a closed input.
func (a *Application) prompt(label string) (string, error) {
	a.printf("%s", label)
	line, err := a.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *Application) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *Application) printHelp() {
	a.printf(`commands:
  signin            authenticate against the identity provider
  signout           invalidate the current session
  reset             start a self-service password reset
  status            show the current state and user
  led on|off        publish the led command to the hub
  send <topic> <m>  publish an arbitrary command
  help              show this help
  exit              leave the console
`)
}
