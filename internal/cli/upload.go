package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [paths...]",
	Short: "Index documents into the local vector index",
	Long: `Chunks, embeds and indexes each file. A file that fails is reported and the
others are still indexed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	svc, err := newService(cmd.Context())
	if err != nil {
		return err
	}

	result := svc.Upload(cmd.Context(), args)
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded: %d, failed: %d\n", result.Succeeded, result.Failed)
	for _, f := range result.Failures {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %v\n", f.Path, f.Err)
	}
	if result.Succeeded == 0 && result.Failed > 0 {
		return fmt.Errorf("no document was indexed")
	}
	return nil
}
