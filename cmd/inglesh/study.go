package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/errors"
	"github.com/devlitus/lesson-inglesh/plugins/catalog"
	"github.com/devlitus/lesson-inglesh/plugins/lessons"
	"github.com/devlitus/lesson-inglesh/plugins/selection"
	"github.com/devlitus/lesson-inglesh/plugins/storage"
)

func newTopicsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List the topics you can study",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *inglesh.App) error {
				topics, err := catalogOf(app).Topics(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTOPIC\tDESCRIPTION")
				for _, t := range topics {
					fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, topicTitle(t), t.Description)
				}
				return w.Flush()
			})
		},
	}
}

func newLevelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "List the difficulty levels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *inglesh.App) error {
				levels, err := catalogOf(app).Levels(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tLEVEL\tDESCRIPTION")
				for _, l := range levels {
					fmt.Fprintf(w, "%s\t%s\t%s\n", l.ID, l.Name, l.Description)
				}
				return w.Flush()
			})
		},
	}
}

func newSelectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Choose the topic and level to study",
		Args:  cobra.NoArgs,
		RunE:  runSelect,
	}
	cmd.Flags().String("topic", "", "Topic id (see `inglesh topics`)")
	cmd.Flags().String("level", "", "Level id (see `inglesh levels`)")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}

func runSelect(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, app *inglesh.App) error {
		user, err := currentUser(app)
		if err != nil {
			return err
		}
		topicID, _ := cmd.Flags().GetString("topic")
		levelID, _ := cmd.Flags().GetString("level")

		cat := catalogOf(app)
		if _, err := cat.Topic(ctx, topicID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errors.NewC(fmt.Sprintf("unknown topic %q, run `inglesh topics` to see the catalog", topicID), codes.NotFound)
			}
			return err
		}
		if _, err := cat.Level(ctx, levelID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errors.NewC(fmt.Sprintf("unknown level %q, run `inglesh levels` to see the catalog", levelID), codes.NotFound)
			}
			return err
		}

		sel := &selection.Selection{UserID: user.ID, TopicID: topicID, LevelID: levelID}
		if err := selectionOf(app).Repository().Save(ctx, sel); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Now studying %s.\n", selectionLabel(ctx, cat, sel))
		return nil
	})
}

func newLessonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lesson",
		Short: "Show your latest lesson",
		Args:  cobra.NoArgs,
		RunE:  runLessonShow,
	}
	cmd.AddCommand(newLessonAddCommand(), newLessonListCommand())
	return cmd
}

func runLessonShow(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, app *inglesh.App) error {
		user, err := currentUser(app)
		if err != nil {
			return err
		}

		lp := lessonsOf(app)
		latest, err := lp.Library().LatestForUser(ctx, user.ID)
		if err != nil {
			return err
		}
		if latest == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No lessons yet. Save one with `inglesh lesson add`.")
			return nil
		}

		topic, level := lessonLabels(ctx, catalogOf(app), latest)
		out, err := lp.Renderer().Render(ctx, latest, topic, level)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	})
}

func newLessonAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a lesson under your current topic and level",
		Args:  cobra.NoArgs,
		RunE:  runLessonAdd,
	}
	cmd.Flags().String("title", "", "Lesson title")
	cmd.Flags().String("content", "", "Lesson text")
	cmd.Flags().String("file", "", "Read the lesson text from a file")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func runLessonAdd(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, app *inglesh.App) error {
		user, err := currentUser(app)
		if err != nil {
			return err
		}
		res, err := selectionOf(app).Gate().Check(ctx)
		if err != nil {
			return err
		}
		if !res.HasSelection {
			return errors.NewC("pick a topic and level first: `inglesh select --topic <id> --level <id>`", codes.FailedPrecondition)
		}

		title, _ := cmd.Flags().GetString("title")
		content, err := lessonContent(cmd)
		if err != nil {
			return err
		}

		lesson := &lessons.Lesson{
			UserID:  user.ID,
			TopicID: res.Selection.TopicID,
			LevelID: res.Selection.LevelID,
			Title:   title,
			Content: content,
		}
		if err := lessonsOf(app).Library().Save(ctx, lesson); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Saved %q. Show it with `inglesh lesson`.\n", title)
		return nil
	})
}

func newLessonListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your saved lessons, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *inglesh.App) error {
				user, err := currentUser(app)
				if err != nil {
					return err
				}
				all, err := lessonsOf(app).Library().ForUser(ctx, user.ID)
				if err != nil {
					return err
				}
				if len(all) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No lessons yet. Save one with `inglesh lesson add`.")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "DATE\tTITLE\tTOPIC\tLEVEL")
				for _, l := range all {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.CreatedAt.Format("2006-01-02"), l.Title, l.TopicID, l.LevelID)
				}
				return w.Flush()
			})
		},
	}
}

// lessonContent reads the lesson text from --content, --file, or stdin.
func lessonContent(cmd *cobra.Command) (string, error) {
	if content, _ := cmd.Flags().GetString("content"); content != "" {
		return content, nil
	}
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrap(err, 0)
		}
		return strings.TrimSpace(string(b)), nil
	}

	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", errors.Wrap(err, 0)
	}
	content := strings.TrimSpace(string(b))
	if content == "" {
		return "", errors.NewC("lesson text is required: pass --content, --file, or pipe it on stdin", codes.InvalidArgument)
	}
	return content, nil
}

func topicTitle(t catalog.Topic) string {
	if t.Icon != "" {
		return t.Icon + " " + t.Title
	}
	return t.Title
}

// selectionLabel formats a selection with catalog display names, falling back
// to raw ids for rows the catalog no longer has.
func selectionLabel(ctx context.Context, cat *catalog.Catalog, sel *selection.Selection) string {
	topicLabel := sel.TopicID
	if t, err := cat.Topic(ctx, sel.TopicID); err == nil {
		topicLabel = topicTitle(*t)
	}
	levelLabel := sel.LevelID
	if l, err := cat.Level(ctx, sel.LevelID); err == nil {
		levelLabel = l.Name
	}
	return topicLabel + " at " + levelLabel
}

// lessonLabels resolves display rows for a lesson's topic and level. Either
// may come back nil; the renderer falls back to ids.
func lessonLabels(ctx context.Context, cat *catalog.Catalog, lesson *lessons.Lesson) (*catalog.Topic, *catalog.Level) {
	topic, err := cat.Topic(ctx, lesson.TopicID)
	if err != nil {
		topic = nil
	}
	level, err := cat.Level(ctx, lesson.LevelID)
	if err != nil {
		level = nil
	}
	return topic, level
}
