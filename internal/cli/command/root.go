package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gamebox/sqld/internal/cli/connection"
	"github.com/gamebox/sqld/internal/cli/output"
	"github.com/gamebox/sqld/internal/infra/buildinfo"
	"github.com/gamebox/sqld/internal/infra/tlsroots"
)

// DefaultServer is the address sqld-snapshotd listens on by default.
const DefaultServer = "127.0.0.1:5090"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "sqld-snapshot",
		Usage:   "Query and update the sqld snapshot index",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LocateCommand(),
			RegisterCommand(),
			ListCommand(),
			HealthCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "sqld-snapshotd address (e.g., 127.0.0.1:5090)",
			EnvVars: []string{"SQLD_SERVER"},
			Value:   DefaultServer,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, jsonl, yaml",
			EnvVars: []string{"SQLD_OUTPUT"},
			Value:   string(output.FormatTable),
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "PEM bundle of additional CAs to trust for https servers",
			EnvVars: []string{"SQLD_CA_FILE"},
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip server certificate verification",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
			Value: connection.DefaultTimeout,
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server   string
	Output   output.Format
	Wide     bool
	CAFile   string
	Insecure bool
	Timeout  time.Duration
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server:   c.String("server"),
		Output:   output.Format(c.String("output")),
		Wide:     c.Bool("wide"),
		CAFile:   c.String("ca-file"),
		Insecure: c.Bool("insecure"),
		Timeout:  c.Duration("timeout"),
	}
}

// newClient returns a client for --server and a context bounded by
// --timeout.
func newClient(c *cli.Context) (*connection.HTTPClient, context.Context, context.CancelFunc, error) {
	flags := ParseGlobalFlags(c)

	var opts []connection.Option
	if flags.CAFile != "" || flags.Insecure {
		tlsCfg, err := tlsroots.ClientConfig(flags.CAFile, flags.Insecure)
		if err != nil {
			return nil, nil, nil, err
		}
		opts = append(opts, connection.WithTLSConfig(tlsCfg))
	}

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	return connection.NewHTTPClient(flags.Server, opts...), ctx, cancel, nil
}

// render writes full in the selected format. Table and jsonl output use rows
// when it is non-nil, so lists print one line per item.
func render(c *cli.Context, full, rows any) error {
	flags := ParseGlobalFlags(c)
	data := full
	perRow := flags.Output == output.FormatTable || flags.Output == output.FormatJSONLines
	if perRow && rows != nil {
		data = rows
	}
	return output.NewFormatter(flags.Output, flags.Wide).Format(writer(c), data)
}

func writer(c *cli.Context) io.Writer {
	if c.App != nil && c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
