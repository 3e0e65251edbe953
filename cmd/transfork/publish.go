package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/okdaichi/transfork/transfork"
	"github.com/spf13/cobra"
)

func publishCmd(cfg *config) *cobra.Command {
	var priority uint64

	cmd := &cobra.Command{
		Use:   "publish <url> <path>",
		Short: "Publish lines from stdin as a track",
		Long: `Publish a track whose groups are read from stdin.

Every line becomes a group with a single frame. The track closes at the
end of input.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cfg, args[0], parsePath(args[1]), transfork.TrackPriority(priority))
		},
	}

	cmd.Flags().Uint64VarP(&priority, "priority", "p", 0, "Track priority")
	addClientFlags(cmd, cfg)

	return cmd
}

func runPublish(cfg *config, url string, path transfork.Path, priority transfork.TrackPriority) error {
	ctx, cancel := signalContext()
	defer cancel()

	conn, err := dial(ctx, cfg, url)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	track := transfork.NewTrack(path, priority)
	defer track.Close()

	if err := conn.Publish(track.Reader()); err != nil {
		return fmt.Errorf("publish %s: %w", path, err)
	}

	lines := make(chan []byte)
	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- append([]byte(nil), scanner.Bytes()...)
		}
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			group, err := track.AppendGroup()
			if err != nil {
				return err
			}
			if err := group.WriteFrames(line); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		case <-conn.Context().Done():
			return conn.Closed(ctx)
		}
	}
}
