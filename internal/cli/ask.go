package cli

import (
	"errors"
	"fmt"

	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := newService(cmd.Context())
	if err != nil {
		return err
	}

	answer, err := svc.Answer(cmd.Context(), args[0])
	if err != nil {
		logger.Error("ask failed", "error", err)
		_, msg := ragErrors.UserMessage(err)
		return errors.New(msg)
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
