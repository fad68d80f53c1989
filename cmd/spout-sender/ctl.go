package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/spout2media/internal/control"
)

const ctlTimeout = 5 * time.Second

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running sender",
	RunE: func(cmd *cobra.Command, args []string) error {
		return ctlCall(control.TypeStatus, nil)
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Resume publishing on a running sender",
	RunE: func(cmd *cobra.Command, args []string) error {
		return ctlCall(control.TypeStart, nil)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop publishing and remove the sender from the namespace",
	RunE: func(cmd *cobra.Command, args []string) error {
		return ctlCall(control.TypeStop, nil)
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename [sender-name]",
	Short: "Rename a running sender",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ctlCall(control.TypeSetOutput, control.SetOutputRequest{SenderName: args[0]})
	},
}

func ctlCall(msgType string, req any) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pipe := cfg.ControlPipe
	if pipe == "" {
		pipe = control.DefaultPath
	}
	client, err := control.Dial(pipe, ctlTimeout)
	if err != nil {
		return fmt.Errorf("sender not running? %w", err)
	}
	defer client.Close()

	var st control.Status
	if err := client.Call(msgType, req, &st); err != nil {
		return err
	}
	fmt.Printf("Sender:    %s\n", st.SenderName)
	fmt.Printf("State:     %s\n", st.State)
	fmt.Printf("Published: %d\n", st.Published)
	fmt.Printf("Dropped:   %d\n", st.Dropped)
	fmt.Printf("Rebuilds:  %d\n", st.Constructions)
	if st.Health != "" {
		fmt.Printf("Health:    %s\n", st.Health)
		for _, c := range st.Checks {
			if c.Message != "" {
				fmt.Printf("  %-8s %s: %s\n", c.Name, c.Status, c.Message)
			} else {
				fmt.Printf("  %-8s %s\n", c.Name, c.Status)
			}
		}
	}
	return nil
}
