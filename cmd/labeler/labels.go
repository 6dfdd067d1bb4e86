package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viscloud/labeler/internal/infra/textfile"
	"github.com/viscloud/labeler/internal/usecase"
)

func newLabelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Post-process exported label files",
	}
	cmd.AddCommand(newVectorCmd(), newPositivesCmd(), newSampleCmd(), newSplitCmd())
	return cmd
}

func newVectorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vector",
		Short: "Build a per-frame label vector from a directory of exports",
		Long: "Reads every *.dat export in --labels-dir and writes one label per frame: " +
			"1 for events, -1 for uncertain frames and 0 otherwise. Events win over " +
			"uncertain labels where they overlap.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			labelsDir, _ := cmd.Flags().GetString("labels-dir")
			numFrames, _ := cmd.Flags().GetInt("num-frames")
			out, _ := cmd.Flags().GetString("out")

			records, err := textfile.ReadRecords(labelsDir)
			if err != nil {
				return err
			}
			vec, err := usecase.BuildFrameVector(records, numFrames)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Processed %d intervals over %d frames\n", len(records), numFrames)
			return writeOutput(cmd, out, func(w io.Writer) error { return textfile.WriteVector(w, vec) })
		},
	}
	cmd.Flags().String("labels-dir", "", "directory containing *.dat export files")
	cmd.Flags().Int("num-frames", 0, "total number of frames in the video")
	cmd.Flags().String("out", "-", "output file, - for stdout")
	_ = cmd.MarkFlagRequired("labels-dir")
	_ = cmd.MarkFlagRequired("num-frames")
	return cmd
}

func newPositivesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positives",
		Short: "List the frames labeled as events, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")

			vec, err := textfile.ReadVectorFile(in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Processing %d frames\n", len(vec))
			frames := usecase.PositiveFrames(vec)
			return writeOutput(cmd, out, func(w io.Writer) error { return textfile.WriteFrames(w, frames) })
		},
	}
	cmd.Flags().String("in", "", "label vector file")
	cmd.Flags().String("out", "-", "output file, - for stdout")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func newSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Keep one in every N frames of a label vector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			n, _ := cmd.Flags().GetInt("every-n")

			vec, err := textfile.ReadVectorFile(in)
			if err != nil {
				return err
			}
			sampled, err := usecase.SampleEvery(vec, n)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, func(w io.Writer) error { return textfile.WriteVector(w, sampled) })
		},
	}
	cmd.Flags().String("in", "", "label vector file")
	cmd.Flags().Int("every-n", 1, "select one in N frames")
	cmd.Flags().String("out", "-", "output file, - for stdout")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func newSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a label vector into train and test parts",
		Long:  "Writes <name>_train.txt with the first --num-frames labels and <name>_test.txt with the rest.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			outDir, _ := cmd.Flags().GetString("out-dir")
			n, _ := cmd.Flags().GetInt("num-frames")

			vec, err := textfile.ReadVectorFile(in)
			if err != nil {
				return err
			}
			train, test, err := usecase.SplitAt(vec, n)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
			if err := textfile.WriteVectorFile(filepath.Join(outDir, base+"_train.txt"), train); err != nil {
				return err
			}
			return textfile.WriteVectorFile(filepath.Join(outDir, base+"_test.txt"), test)
		},
	}
	cmd.Flags().String("in", "", "label vector file")
	cmd.Flags().Int("num-frames", 0, "number of frames that go to the train part")
	cmd.Flags().String("out-dir", ".", "output directory")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("num-frames")
	return cmd
}

func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
