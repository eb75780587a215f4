package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clify-dev/clify/internal/cligen"
	"github.com/clify-dev/clify/internal/httpclient"
	"github.com/clify-dev/clify/internal/output"
	"github.com/clify-dev/clify/internal/spec"
	"github.com/clify-dev/clify/internal/version"
)

type rootOptions struct {
	SpecFile string
	Server   string

	Username string
	Password string
	Token    string
	APIKey   string

	ClientID     string
	ClientSecret string
	TokenURL     string

	Timeout time.Duration

	Pretty   bool
	NoPretty bool

	Debug bool
	Trace bool

	Status  bool
	Headers bool

	RetryNonIdempotent bool
}

type appState struct {
	opts    rootOptions
	model   *spec.Model
	auth    *httpclient.Auth
	client  *httpclient.Client
	printer *output.Printer
}

func (a *appState) initFromFlags(cmd *cobra.Command) error {
	if a.opts.Pretty && a.opts.NoPretty {
		return fmt.Errorf("cannot set both --pretty and --no-pretty")
	}

	a.printer = output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Options{
		ForcePretty:  a.opts.Pretty,
		ForceCompact: a.opts.NoPretty,
		PrintStatus:  a.opts.Status,
		PrintHeaders: a.opts.Headers,
	})

	a.client = httpclient.New(httpclient.Options{
		Timeout:            a.opts.Timeout,
		Debug:              a.opts.Debug,
		Trace:              a.opts.Trace,
		RetryNonIdempotent: a.opts.RetryNonIdempotent,
		UserAgent:          version.UserAgent(),
		Out:                cmd.ErrOrStderr(),
	})

	a.auth = &httpclient.Auth{
		Username:     a.opts.Username,
		Password:     a.opts.Password,
		Token:        a.opts.Token,
		APIKey:       a.opts.APIKey,
		ClientID:     a.opts.ClientID,
		ClientSecret: a.opts.ClientSecret,
		TokenURL:     a.opts.TokenURL,
	}
	return nil
}

// NoSpecSourceError reports an operation invoked with no OpenAPI
// document configured.
type NoSpecSourceError struct{}

func (e *NoSpecSourceError) Error() string {
	return "no OpenAPI document: pass --openapi-file/-f or set OPENAPI_FILE_PATH"
}
func (e *NoSpecSourceError) ExitCode() int { return 4 }

const loadTimeout = 30 * time.Second

// NewRootCmd builds the CLI for the given OpenAPI document source (a
// file path or an http(s) URL). An empty source yields a root command
// with only the built-in subcommands; invoking an operation then fails
// with NoSpecSourceError.
func NewRootCmd(source string) (*cobra.Command, error) {
	app := &appState{
		opts: rootOptions{
			Timeout: 30 * time.Second,
		},
	}

	root := &cobra.Command{
		Use:   "clify",
		Short: "Generate and run a CLI from an OpenAPI document",
		Long: "clify turns an OpenAPI 2.0 or 3.x document into a runnable CLI:\n" +
			"one subcommand per operation, one flag per parameter.\n\n" +
			"Point it at a document:\n" +
			"  clify -f ./openapi.yaml <operation> [flags]\n" +
			"  clify -f https://api.example.com/openapi.json <operation> [flags]\n" +
			"  export OPENAPI_FILE_PATH=./openapi.yaml\n\n" +
			"Examples:\n" +
			"  clify -f api.yaml get-user --id 42\n" +
			"  clify -f api.yaml list-users --limit 100 --status active\n" +
			"  clify -f api.yaml create-user --data @user.json\n" +
			"  clify -f api.yaml spec list\n\n" +
			"Exit codes:\n" +
			"  0  success\n" +
			"  1  unclassified error\n" +
			"  2  flag validation (bad type, missing required flag or body)\n" +
			"  3  document load failure (unreachable, unparseable, invalid)\n" +
			"  4  configuration (no document source, no server URL)\n" +
			"  5  authentication (token acquisition failed)\n" +
			"  6  transport failure or non-2xx HTTP status\n",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.initFromFlags(cmd); err != nil {
				return err
			}
			ctx := cligen.WithRuntime(cmd.Context(), &cligen.Runtime{
				Server:  app.opts.Server,
				Model:   app.model,
				Auth:    app.auth,
				Client:  app.client,
				Printer: app.printer,
				Stdin:   cmd.InOrStdin(),
				Stderr:  cmd.ErrOrStderr(),
			})
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&app.opts.SpecFile, "openapi-file", "f", "", "OpenAPI document: file path or http(s) URL (or set OPENAPI_FILE_PATH)")
	root.PersistentFlags().StringVarP(&app.opts.Server, "server", "s", "", "Override the document's server base URL")

	root.PersistentFlags().StringVar(&app.opts.Username, "username", "", "Basic auth username (or set CLIFY_USERNAME)")
	root.PersistentFlags().StringVar(&app.opts.Password, "password", "", "Basic auth password (or set CLIFY_PASSWORD)")
	root.PersistentFlags().StringVar(&app.opts.Token, "token", "", "Bearer token (or set CLIFY_TOKEN)")
	root.PersistentFlags().StringVar(&app.opts.APIKey, "api-key", "", "API key, placed per the document's apiKey scheme (or set CLIFY_API_KEY)")
	root.PersistentFlags().StringVar(&app.opts.ClientID, "client-id", "", "OAuth2 client ID for the client-credentials flow (or set CLIFY_CLIENT_ID)")
	root.PersistentFlags().StringVar(&app.opts.ClientSecret, "client-secret", "", "OAuth2 client secret (or set CLIFY_CLIENT_SECRET)")
	root.PersistentFlags().StringVar(&app.opts.TokenURL, "token-url", "", "Override the OAuth2 token endpoint")

	root.PersistentFlags().DurationVar(&app.opts.Timeout, "timeout", app.opts.Timeout, "HTTP client timeout")

	root.PersistentFlags().BoolVar(&app.opts.Pretty, "pretty", false, "Force pretty-printed JSON output")
	root.PersistentFlags().BoolVar(&app.opts.NoPretty, "no-pretty", false, "Force compact (non-pretty) output")

	root.PersistentFlags().BoolVar(&app.opts.Debug, "debug", false, "Log request/response metadata to stderr (redacts auth)")
	root.PersistentFlags().BoolVar(&app.opts.Trace, "trace", false, "Log full request/response bodies to stderr (redacts auth headers)")
	root.PersistentFlags().BoolVar(&app.opts.Status, "status", false, "Print HTTP status code to stderr")
	root.PersistentFlags().BoolVar(&app.opts.Headers, "headers", false, "Print response headers to stderr (redacts auth-related headers)")
	root.PersistentFlags().BoolVar(&app.opts.RetryNonIdempotent, "retry-non-idempotent", false, "Allow retries for non-idempotent requests on 429/5xx")

	root.SetVersionTemplate("{{.Version}}\n")
	root.Version = version.Version()

	root.AddCommand(newVersionCmd())

	if source != "" {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		model, err := spec.Load(ctx, source)
		if err != nil {
			return nil, err
		}
		for _, w := range model.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		app.model = model

		table := cligen.NewTable(model)
		cligen.AddCommands(root, table)
		root.AddCommand(newSpecCmd(model, table))
	} else {
		// Without a document there are no generated subcommands; accept
		// arbitrary args so the unconfigured case reports the real problem
		// instead of cobra's unknown-command error.
		root.Args = cobra.ArbitraryArgs
		root.RunE = func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &NoSpecSourceError{}
			}
			return cmd.Help()
		}
	}

	// Credential and server defaults from the environment.
	for env, flag := range map[string]string{
		"CLIFY_SERVER":        "server",
		"CLIFY_USERNAME":      "username",
		"CLIFY_PASSWORD":      "password",
		"CLIFY_TOKEN":         "token",
		"CLIFY_API_KEY":       "api-key",
		"CLIFY_CLIENT_ID":     "client-id",
		"CLIFY_CLIENT_SECRET": "client-secret",
		"CLIFY_TOKEN_URL":     "token-url",
	} {
		if v := os.Getenv(env); v != "" {
			_ = root.PersistentFlags().Set(flag, v)
		}
	}

	return root, nil
}

// SpecSourceFromArgs pre-scans the raw arguments for the document
// source so the command tree can be synthesized before cobra parses
// anything. Falls back to OPENAPI_FILE_PATH.
func SpecSourceFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-f" || a == "--openapi-file":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(a, "--openapi-file="):
			return strings.TrimPrefix(a, "--openapi-file=")
		case strings.HasPrefix(a, "-f="):
			return strings.TrimPrefix(a, "-f=")
		}
	}
	return os.Getenv("OPENAPI_FILE_PATH")
}
