package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fiapx/fiapx-dataset-prep/internal/domain/entity"
	"github.com/fiapx/fiapx-dataset-prep/internal/usecase"
)

func newSplitCmd(a *app) *cobra.Command {
	var (
		p    entity.Proportions
		seed int64
	)
	cmd := &cobra.Command{
		Use:   "split <source_dir> <target_dir>",
		Short: "Split labeled images into train/valid/test by source video",
		Long: `Split source_dir/images and source_dir/labels into
target_dir/{train,valid,test}/{images,labels}. Frames named
<video>_clip<N>_frame<M>_jpg.rf.<hash>.<ext> are grouped by <video>_clip<N>
and every group lands in exactly one split. A split_manifest.tsv lists
where each pair went.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := usecase.NewSplitDatasetUseCase(a.log).Execute(cmd.Context(), usecase.SplitDatasetInput{
				SourceDir:   args[0],
				TargetDir:   args[1],
				Proportions: p,
				Seed:        seed,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out.Counts.Unmatched > 0 {
				fmt.Fprintf(w, "Skipped %d images whose names carry no video group.\n", out.Counts.Unmatched)
			}
			if out.Counts.Overwritten > 0 {
				fmt.Fprintf(w, "Overwrote %d images already present in the target.\n", out.Counts.Overwritten)
			}
			fmt.Fprintln(w, out.Counts.Summary())
			return nil
		},
	}
	def := entity.DefaultProportions
	cmd.Flags().Float64Var(&p.Train, "train_split", def.Train, "proportion of video groups used for training")
	cmd.Flags().Float64Var(&p.Valid, "valid_split", def.Valid, "proportion of video groups used for validation")
	cmd.Flags().Float64Var(&p.Test, "test_split", def.Test, "proportion of video groups used for testing")
	cmd.Flags().Int64Var(&seed, "seed", entity.DefaultSeed, "random seed for shuffling the video groups")
	return cmd
}
