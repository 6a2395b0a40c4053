package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newApproveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <record-id>",
		Short: "Complete a pending record and apply its settlement movement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return settle(cmd, args[0], true)
		},
	}
}

func newRejectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <record-id>",
		Short: "Reject a pending record and release any held funds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return settle(cmd, args[0], false)
		},
	}
}

func settle(cmd *cobra.Command, rawID string, approve bool) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid record id %q: %w", rawID, err)
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if approve {
		err = e.ops.Approve(cmd.Context(), id)
	} else {
		err = e.ops.Reject(cmd.Context(), id)
	}
	if err != nil {
		return err
	}

	record, err := e.journal.GetByID(cmd.Context(), id)
	if err != nil {
		return err
	}

	e.log.Info("record settled",
		zap.String("reference", record.ReferenceNumber),
		zap.String("status", string(record.Status)),
	)
	fmt.Printf("%s is now %s\n", record.ReferenceNumber, record.Status)

	return nil
}
