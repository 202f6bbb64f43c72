package command

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/gamebox/sqld/internal/cli/connection"
)

// Snapshot is one registered range as returned by the server.
type Snapshot struct {
	DatabaseID   string `json:"database_id" yaml:"database_id" table:"wide"`
	StartFrameNo uint64 `json:"start_frame_no" yaml:"start_frame_no"`
	EndFrameNo   uint64 `json:"end_frame_no" yaml:"end_frame_no"`
	SnapshotID   string `json:"snapshot_id" yaml:"snapshot_id"`
}

// SnapshotList is the list endpoint payload.
type SnapshotList struct {
	DatabaseID string     `json:"database_id" yaml:"database_id"`
	Items      []Snapshot `json:"items" yaml:"items"`
	Total      int        `json:"total" yaml:"total"`
}

const databaseUsage = "DATABASE is a database id (hex or UUID) or name:<database name>"

// LocateCommand returns the locate command.
func LocateCommand() *cli.Command {
	return &cli.Command{
		Name:        "locate",
		Usage:       "Find the snapshot containing a frame",
		ArgsUsage:   "DATABASE FRAME_NO",
		Description: databaseUsage,
		Action:      locateAction,
	}
}

// RegisterCommand returns the register command.
func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:        "register",
		Usage:       "Record that a snapshot covers a frame range",
		ArgsUsage:   "--start N --end M [--snapshot-id UUID] DATABASE",
		Description: databaseUsage,
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:     "start",
				Usage:    "First frame number covered (inclusive)",
				Required: true,
			},
			&cli.Uint64Flag{
				Name:     "end",
				Usage:    "Last frame number covered (inclusive)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "snapshot-id",
				Usage: "Snapshot UUID (generated by the server when empty)",
			},
		},
		Action: registerAction,
	}
}

// ListCommand returns the list command.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Aliases:     []string{"ls"},
		Usage:       "List the ranges registered for a database",
		ArgsUsage:   "DATABASE",
		Description: databaseUsage,
		Action:      listAction,
	}
}

func snapshotsPath(database string) string {
	return "/v1/databases/" + url.PathEscape(database) + "/snapshots"
}

func locateAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: locate DATABASE FRAME_NO")
	}
	database := c.Args().Get(0)
	frameNo, err := strconv.ParseUint(c.Args().Get(1), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid frame number %q: %w", c.Args().Get(1), err)
	}

	client, ctx, cancel, err := newClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	path := snapshotsPath(database) + "/locate?frame_no=" + strconv.FormatUint(frameNo, 10)
	resp, err := client.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var snap Snapshot
	if err := connection.ParseResponse(resp, &snap); err != nil {
		return err
	}
	return render(c, snap, nil)
}

func registerAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: register --start N --end M [--snapshot-id UUID] DATABASE")
	}
	database := c.Args().Get(0)

	start, end := c.Uint64("start"), c.Uint64("end")
	if start > end {
		return fmt.Errorf("start frame %d is after end frame %d", start, end)
	}

	client, ctx, cancel, err := newClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	body := map[string]any{
		"start_frame_no": start,
		"end_frame_no":   end,
	}
	if id := c.String("snapshot-id"); id != "" {
		body["snapshot_id"] = id
	}

	resp, err := client.Post(ctx, snapshotsPath(database), body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var snap Snapshot
	if err := connection.ParseResponse(resp, &snap); err != nil {
		return err
	}
	return render(c, snap, nil)
}

func listAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: list DATABASE")
	}

	client, ctx, cancel, err := newClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	resp, err := client.Get(ctx, snapshotsPath(c.Args().Get(0)))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var list SnapshotList
	if err := connection.ParseResponse(resp, &list); err != nil {
		return err
	}
	if list.Items == nil {
		list.Items = []Snapshot{}
	}
	return render(c, list, list.Items)
}
