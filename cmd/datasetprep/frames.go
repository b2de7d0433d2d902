package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fiapx/fiapx-dataset-prep/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-dataset-prep/internal/usecase"
)

func newExtractFramesCmd(a *app) *cobra.Command {
	var interval int
	cmd := &cobra.Command{
		Use:   "extract-frames <video_file|clips_folder> <output_dir>",
		Short: "Sample every n-th frame of a video, or of every .mp4 in a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.FrameInterval
			}
			extractor := ffmpeg.NewExtractor(a.cfg.FFmpegPath, a.cfg.FFprobePath, a.cfg.FrameFormat, a.log)
			uc := usecase.NewExtractFramesUseCase(extractor, a.log, a.progress(cmd))

			src, out := args[0], args[1]
			if info, err := os.Stat(src); err == nil && info.IsDir() {
				res, err := uc.ExtractDir(cmd.Context(), src, out, interval)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d frames from %d videos.\n", res.FrameCount(), len(res.Videos))
				return nil
			}

			res, err := uc.ExtractVideo(cmd.Context(), src, out, interval)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d frames from the video.\n", res.FrameCount)
			return nil
		},
	}
	cmd.Flags().IntVar(&interval, "interval", 30, "keep one frame out of every interval frames (default FRAME_INTERVAL)")
	return cmd
}
