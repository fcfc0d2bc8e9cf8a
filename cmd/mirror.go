package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ringtoned/logger"
	"ringtoned/storage"
)

var (
	mirrorPrefix string
	mirrorStats  bool
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Manage the object storage copy of the ringtone library",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCmd.PersistentPreRun(cmd, args)
		initLogging(cfg.LogFile, cfg.LogLevel, os.Stderr)
		if !cfg.MirrorEnabled() {
			return fmt.Errorf("MINIO_ENDPOINT is not set")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

var mirrorSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload every ringtone and sidecar to the bucket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := storage.NewMirror(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		n, err := m.Sync(cmd.Context(), cfg)
		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d files to %s\n", n, cfg.MinioBucket)
		return err
	},
}

var mirrorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mirrored objects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := storage.NewMirror(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		objects, stats, err := m.List(cmd.Context(), mirrorPrefix)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !mirrorStats {
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tSIZE\tMODIFIED")
			for _, o := range objects {
				fmt.Fprintf(w, "%s\t%s\t%s\n", o.Key, storage.FormatSize(o.Size), o.LastModified.Format("2006-01-02 15:04:05"))
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "%d objects, %s", stats.TotalObjects, storage.FormatSize(stats.TotalSize))
		if !stats.LastModified.IsZero() {
			fmt.Fprintf(out, ", last modified %s", stats.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	mirrorListCmd.Flags().StringVarP(&mirrorPrefix, "prefix", "p", "", "only list keys with this prefix")
	mirrorListCmd.Flags().BoolVarP(&mirrorStats, "stats", "s", false, "print only the bucket summary")
	mirrorListCmd.Example = `  # every object
  ringtoned mirror list

  # WAV ringtones only
  ringtoned mirror list -p wav_ringtones/

  # bucket summary
  ringtoned mirror list -s`

	mirrorCmd.AddCommand(mirrorSyncCmd, mirrorListCmd)
	rootCmd.AddCommand(mirrorCmd)
}
