package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/okdaichi/transfork/transfork"
	"github.com/spf13/cobra"
)

func subscribeCmd(cfg *config) *cobra.Command {
	var (
		priority uint64
		order    string
		info     bool
	)

	cmd := &cobra.Command{
		Use:   "subscribe <url> <path>",
		Short: "Subscribe to a track and print its frames",
		Long: `Subscribe to a track and write every received frame to stdout,
one per line.

Examples:
  transfork subscribe https://localhost:4443 room1/cam
  transfork subscribe --info moqt://localhost:4443 room1/cam`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupOrder, err := parseOrder(order)
			if err != nil {
				return err
			}

			path := parsePath(args[1])
			if info {
				return runInfo(cfg, args[0], path)
			}
			return runSubscribe(cfg, args[0], path, transfork.TrackPriority(priority), groupOrder)
		},
	}

	cmd.Flags().Uint64VarP(&priority, "priority", "p", 0, "Subscription priority")
	cmd.Flags().StringVar(&order, "order", "any", "Group order: any, ascending or descending")
	cmd.Flags().BoolVar(&info, "info", false, "Print the track info and exit")
	addClientFlags(cmd, cfg)

	cmd.AddCommand(announcedCmd(cfg))

	return cmd
}

func parseOrder(s string) (transfork.GroupOrder, error) {
	switch s {
	case "", "any":
		return transfork.GroupOrderAny, nil
	case "ascending":
		return transfork.GroupOrderAscending, nil
	case "descending":
		return transfork.GroupOrderDescending, nil
	default:
		return 0, fmt.Errorf("unknown group order %q", s)
	}
}

func runSubscribe(cfg *config, url string, path transfork.Path, priority transfork.TrackPriority, order transfork.GroupOrder) error {
	ctx, cancel := signalContext()
	defer cancel()

	conn, err := dial(ctx, cfg, url)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	track := transfork.NewTrack(path, priority)
	track.SetOrder(order)

	reader, err := conn.Subscribe(ctx, track)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		group, err := reader.NextGroup(ctx)
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}

		err = printGroup(ctx, group)
		group.Close()
		if err != nil {
			return err
		}
	}
}

func printGroup(ctx context.Context, group *transfork.GroupReader) error {
	for {
		frame, err := group.ReadFrame(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "%s\n", frame)
	}
}

func runInfo(cfg *config, url string, path transfork.Path) error {
	ctx, cancel := signalContext()
	defer cancel()

	conn, err := dial(ctx, cfg, url)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	info, err := conn.Info(ctx, path)
	if err != nil {
		return err
	}

	fmt.Printf("path:     %s\n", path)
	fmt.Printf("priority: %d\n", info.Priority)
	fmt.Printf("order:    %s\n", info.Order)
	if info.Latest != nil {
		fmt.Printf("latest:   %d\n", *info.Latest)
	} else {
		fmt.Println("latest:   none")
	}

	return nil
}

func announcedCmd(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "announced <url> [prefix]",
		Short: "Print tracks as they are announced and withdrawn",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prefix transfork.Path
			if len(args) > 1 {
				prefix = parsePath(args[1])
			}
			return runAnnounced(cfg, args[0], prefix)
		},
	}

	addClientFlags(cmd, cfg)

	return cmd
}

func runAnnounced(cfg *config, url string, prefix transfork.Path) error {
	ctx, cancel := signalContext()
	defer cancel()

	conn, err := dial(ctx, cfg, url)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	queue, err := conn.Announced(ctx, prefix)
	if err != nil {
		return err
	}

	for {
		announced, err := queue.Next(ctx)
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("+ %s\n", announced.Path)
		go func() {
			if announced.Closed(ctx) == nil {
				fmt.Printf("- %s\n", announced.Path)
			}
		}()
	}
}
