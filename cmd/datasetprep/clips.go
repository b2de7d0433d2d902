package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fiapx/fiapx-dataset-prep/internal/domain/entity"
	"github.com/fiapx/fiapx-dataset-prep/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-dataset-prep/internal/usecase"
)

func (a *app) clipsUseCase(cmd *cobra.Command) *usecase.ExtractClipsUseCase {
	return usecase.NewExtractClipsUseCase(ffmpeg.NewClipExtractor(a.cfg.FFmpegPath, a.log), a.log, a.progress(cmd))
}

func newExtractClipsCmd(a *app) *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "extract-clips <video_path> <HH:MM:SS,SECS>...",
		Short: "Cut clips out of a video",
		Long: `Cut one clip per HH:MM:SS,SECS argument, starting at the timecode and
lasting SECS seconds. Clip i is written to <output_dir>/<video>_clip<i>.mp4
without audio.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clips, err := entity.ParseClipSpecs(args[1:])
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = a.cfg.ClipsDir
			}
			paths, err := a.clipsUseCase(cmd).ExtractVideo(cmd.Context(), args[0], clips, outputDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d clips into %s\n", len(paths), outputDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&outputDir, "output_dir", "", "directory to save the clips (default CLIPS_DIR)")
	return cmd
}

func newBatchClipsCmd(a *app) *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "batch-clips <parameters_file>",
		Short: "Cut clips for every video listed in a parameters file",
		Long: `Each non-blank line of the parameters file reads
  <video_path> <HH:MM:SS,SECS> [<HH:MM:SS,SECS> ...]
and is processed like extract-clips, in file order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir == "" {
				outputDir = a.cfg.ClipsDir
			}
			paths, err := a.clipsUseCase(cmd).ExtractBatch(cmd.Context(), args[0], outputDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d clips into %s\n", len(paths), outputDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&outputDir, "output_dir", "", "directory to save the clips (default CLIPS_DIR)")
	return cmd
}
