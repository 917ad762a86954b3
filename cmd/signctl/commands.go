package main

import (
	"fmt"

	"github.com/spf13/cobra"

	domain "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/signs"
)

type openSession func(cmd *cobra.Command) (*Session, func(), error)

func newImagesCmd(open openSession) *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "List candidate images under inputs/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, done, err := open(cmd)
			if err != nil {
				return err
			}
			defer done()

			images, err := s.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(images) == 0 {
				fmt.Fprintln(out, "No images found.")
				return nil
			}
			for _, name := range images {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}

func newAnalyzeCmd(open openSession) *cobra.Command {
	var drivingContext string
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Describe the sign in an image and get a precaution for the driving context",
		Long: `Run the sign analysis workflow on one image.

<image> is a filename under inputs/ (as listed by "signctl images") or a
full object key. The result is stored and printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := open(cmd)
			if err != nil {
				return err
			}
			defer done()

			rec, err := s.Analyze(cmd.Context(), args[0], drivingContext)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", args[0], err)
			}
			renderRecord(cmd.OutOrStdout(), rec)
			return nil
		},
	}
	cmd.Flags().StringVar(&drivingContext, "context", domain.DefaultContext, "driving context (weather, speed)")
	return cmd
}

func newHistoryCmd(open openSession) *cobra.Command {
	var page, pageSize int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, done, err := open(cmd)
			if err != nil {
				return err
			}
			defer done()

			recs, err := s.backend.History(cmd.Context(), page, pageSize)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, "No analyses stored.")
				return nil
			}
			for i, rec := range recs {
				if i > 0 {
					fmt.Fprintln(out)
				}
				renderRecord(out, rec)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "records per page (max 100)")
	return cmd
}
