package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/pomobar/internal/protocol"
)

var setTargets = map[string]protocol.Op{
	"work":    protocol.OpSetWork,
	"short":   protocol.OpSetShort,
	"long":    protocol.OpSetLong,
	"current": protocol.OpSetCurrent,
}

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set {work|short|long|current} TIME",
		Short: "Change a cycle duration",
		Long: `Change a cycle duration, in minutes. A bare number replaces the
duration and resets the timer; a signed number adjusts it in place.
The current target changes only the cycle in progress and is undone
at the next transition.

Examples:
  pomobar set work 30      # Work cycles are now 30 minutes, timer resets
  pomobar set short +2     # Short breaks gain two minutes, no reset
  pomobar set long 10-     # Long breaks lose ten minutes
  pomobar set current 3    # Just this cycle runs for 3 minutes`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, ok := setTargets[args[0]]
			if !ok {
				return fmt.Errorf("unknown target %q (want work, short, long or current)", args[0])
			}
			value, err := protocol.ParseTimeValue(args[1])
			if err != nil {
				return err
			}
			frame, err := protocol.Message{Op: op, Time: value}.Encode()
			if err != nil {
				return err
			}
			return broadcast(frame)
		},
	}
	cmd.Flags().IntVar(&controlInstance, "instance", -1, "target instance (default: all)")
	return cmd
}
