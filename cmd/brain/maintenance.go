package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/thenoname-gurl/Brain/plugin/brain"
	"github.com/thenoname-gurl/Brain/plugin/brain/trainer"
)

func reprocessCmd() *cobra.Command {
	var cooperative bool
	cmd := &cobra.Command{
		Use:   "reprocess",
		Short: "Rebuild the language graphs and prototype memory from the log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			b, err := openBrain(ctx, p, newLogger(p))
			if err != nil {
				return err
			}
			defer b.Store().Close(ctx)

			out := cmd.OutOrStdout()
			b.Store().Lock()
			var progress trainer.Progress
			if cooperative {
				progress, err = b.ReprocessCooperative(ctx, func(p trainer.Progress) {
					fmt.Fprintf(out, "%d/%d\n", p.Considered, p.Total)
				}, nil)
			} else {
				progress = b.Reprocess(ctx)
			}
			b.Store().Unlock()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "considered %d, learned %d\n", progress.Considered, progress.Learned)
			return nil
		},
	}
	cmd.Flags().BoolVar(&cooperative, "cooperative", false, "yield between batches and report progress")
	return cmd
}

func lessonCmd() *cobra.Command {
	var id, topic, file string
	cmd := &cobra.Command{
		Use:   "lesson",
		Short: "Load a starter lesson from a text file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			content, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrapf(err, "failed to read lesson %s", file)
			}
			p, err := loadProfile()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			b, err := openBrain(ctx, p, newLogger(p))
			if err != nil {
				return err
			}
			defer b.Store().Close(ctx)

			b.Store().Lock()
			res := b.IngestStarterLesson(ctx, brain.Lesson{ID: id, Topic: topic, Content: string(content)})
			b.Store().Unlock()
			if !res.Loaded {
				return errors.Errorf("lesson %q not loaded: %s", id, res.Reason)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded lesson %s\n", res.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "lesson id")
	cmd.Flags().StringVar(&topic, "topic", "", "lesson topic")
	cmd.Flags().StringVar(&file, "file", "", "path to the lesson text")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
