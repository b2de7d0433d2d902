package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fiapx/fiapx-dataset-prep/internal/dataset"
)

func newRenameCmd(a *app) *cobra.Command {
	var outputFolder string
	cmd := &cobra.Command{
		Use:   "rename <input_folder> <base_name>",
		Short: "Rename the files of a folder to <base_name>_<i><ext>",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			renamed, err := dataset.RenameFiles(args[0], args[1], outputFolder)
			if err != nil {
				return err
			}
			for _, r := range renamed {
				a.log.Debug("renamed", zap.String("from", r.From), zap.String("to", r.To))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %d files.\n", len(renamed))
			return nil
		},
	}
	cmd.Flags().StringVar(&outputFolder, "output_folder", "", "folder to move the renamed files into (default: rename in place)")
	return cmd
}
