package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/pomobar/internal/daemon"
	"github.com/Dicklesworthstone/pomobar/internal/protocol"
)

// controlInstance is shared by all control commands: -1 broadcasts to every
// running daemon, >= 0 targets one instance.
var controlInstance int

func newControlCmds() []*cobra.Command {
	defs := []struct {
		use   string
		op    protocol.Op
		short string
	}{
		{"start", protocol.OpStart, "Start the timer"},
		{"stop", protocol.OpStop, "Pause the timer"},
		{"toggle", protocol.OpToggle, "Start or pause the timer"},
		{"reset", protocol.OpReset, "Reset the timer to the first work cycle"},
		{"skip", protocol.OpNextState, "Skip to the next cycle"},
	}

	cmds := make([]*cobra.Command, 0, len(defs))
	for _, def := range defs {
		op := def.op
		cmd := &cobra.Command{
			Use:   def.use,
			Short: def.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				frame, err := protocol.Message{Op: op}.Encode()
				if err != nil {
					return err
				}
				return broadcast(frame)
			},
		}
		cmd.Flags().IntVar(&controlInstance, "instance", -1, "target instance (default: all)")
		cmds = append(cmds, cmd)
	}
	return cmds
}

// broadcast sends one frame to every matching daemon socket. A daemon that
// disappeared between discovery and dial is reported but does not abort the
// remaining sends.
func broadcast(frame string) error {
	sockets, err := daemon.ExistingSockets()
	if err != nil {
		return err
	}
	if len(sockets) == 0 {
		return fmt.Errorf("no running daemon found; start one with 'pomobar serve'")
	}

	sent := 0
	for _, socket := range sockets {
		if controlInstance >= 0 && daemon.InstanceFromPath(socket) != controlInstance {
			continue
		}
		if err := daemon.SendMessage(socket, frame); err != nil {
			fmt.Fprintln(os.Stderr, "Warning:", err)
			continue
		}
		sent++
	}
	if sent == 0 {
		return fmt.Errorf("no daemon matched instance %d", controlInstance)
	}
	return nil
}
