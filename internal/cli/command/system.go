package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/gamebox/sqld/internal/cli/connection"
	"github.com/gamebox/sqld/internal/cli/output"
	"github.com/gamebox/sqld/internal/infra/buildinfo"
)

// Health is the /health payload.
type Health struct {
	Status  string `json:"status" yaml:"status"`
	Engine  string `json:"engine" yaml:"engine"`
	Version string `json:"version" yaml:"version"`
	Time    string `json:"time" yaml:"time" table:"wide"`
}

// Versions pairs the client build with the server build.
type Versions struct {
	Client buildinfo.Info  `json:"client" yaml:"client"`
	Server *buildinfo.Info `json:"server,omitempty" yaml:"server,omitempty"`
}

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check server health",
		Action: healthAction,
	}
}

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show client and server versions",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "client",
				Usage: "Only show the client version",
			},
		},
		Action: versionAction,
	}
}

func healthAction(c *cli.Context) error {
	client, ctx, cancel, err := newClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	resp, err := client.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	var health Health
	if err := connection.ParseResponse(resp, &health); err != nil {
		return fmt.Errorf("server unhealthy: %w", err)
	}

	if ParseGlobalFlags(c).Output != output.FormatTable {
		return render(c, health, nil)
	}
	fmt.Fprintf(writer(c), "Server is %s\n", health.Status)
	fmt.Fprintf(writer(c), "  Target:  %s\n", client.BaseURL())
	fmt.Fprintf(writer(c), "  Engine:  %s\n", health.Engine)
	fmt.Fprintf(writer(c), "  Version: %s\n", health.Version)
	return nil
}

func versionAction(c *cli.Context) error {
	v := Versions{Client: buildinfo.Get()}

	if !c.Bool("client") {
		client, ctx, cancel, err := newClient(c)
		if err != nil {
			return err
		}
		defer cancel()

		resp, err := client.Get(ctx, "/version")
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		var server buildinfo.Info
		if err := connection.ParseResponse(resp, &server); err != nil {
			return err
		}
		v.Server = &server
	}

	if ParseGlobalFlags(c).Output != output.FormatTable {
		return render(c, v, nil)
	}

	table := &output.Table{Headers: []string{"COMPONENT", "VERSION", "COMMIT", "BUILT", "GO"}}
	table.AddRow("client", v.Client.Version, v.Client.Commit, v.Client.BuildTime, v.Client.GoVersion)
	if v.Server != nil {
		table.AddRow("server", v.Server.Version, v.Server.Commit, v.Server.BuildTime, v.Server.GoVersion)
	}
	return render(c, table, nil)
}
