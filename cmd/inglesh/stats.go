package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	inglesh "github.com/devlitus/lesson-inglesh"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show your study activity",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, app *inglesh.App) error {
		user, err := currentUser(app)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Account: %s <%s>\n", displayName(user), user.Email)

		res, err := selectionOf(app).Gate().Check(ctx)
		if err != nil {
			return err
		}
		if res.HasSelection {
			fmt.Fprintf(out, "Studying: %s\n", selectionLabel(ctx, catalogOf(app), res.Selection))
		} else {
			fmt.Fprintln(out, "Studying: nothing selected yet")
		}

		all, err := lessonsOf(app).Library().ForUser(ctx, user.ID)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Fprintln(out, "Lessons: none saved yet")
		} else {
			latest := all[0]
			fmt.Fprintf(out, "Lessons: %d saved, latest %q on %s\n", len(all), latest.Title, latest.CreatedAt.Format("Jan 2, 2006"))

			byTopic := map[string]int{}
			for _, l := range all {
				byTopic[l.TopicID]++
			}
			topics := make([]string, 0, len(byTopic))
			for id := range byTopic {
				topics = append(topics, id)
			}
			sort.Strings(topics)
			for _, id := range topics {
				fmt.Fprintf(out, "  %s: %d\n", id, byTopic[id])
			}
		}

		// Let startup events, like a token refresh, land before reading the
		// counters.
		if err := busOf(app).Wait(ctx); err != nil {
			return err
		}
		if snapshot := metricsOf(app).Counter().Snapshot(); len(snapshot) > 0 {
			fmt.Fprintln(out, "\nAuth events this run:")
			events := make([]string, 0, len(snapshot))
			for event := range snapshot {
				events = append(events, event)
			}
			sort.Strings(events)
			for _, event := range events {
				fmt.Fprintf(out, "  %s: %d\n", event, snapshot[event])
			}
		}
		return nil
	})
}
