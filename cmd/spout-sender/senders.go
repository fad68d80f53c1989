package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/breeze-rmm/spout2media/internal/spout"
)

var sendersOutput string

var sendersCmd = &cobra.Command{
	Use:   "senders",
	Short: "List the senders registered on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ns, err := spout.NewNamespace(spout.NewSystemMapper(), spout.Options{MaxSenders: cfg.MaxSenders})
		if err != nil {
			return fmt.Errorf("open sender namespace: %w", err)
		}
		defer ns.Close()

		listing, err := listSenders(ns)
		if err != nil {
			return err
		}
		return writeListing(os.Stdout, listing, sendersOutput)
	},
}

func init() {
	sendersCmd.Flags().StringVarP(&sendersOutput, "output", "o", "table", "output format: table, yaml or json")
}

type senderRow struct {
	Name        string `yaml:"name" json:"name"`
	Active      bool   `yaml:"active" json:"active"`
	Width       uint32 `yaml:"width" json:"width"`
	Height      uint32 `yaml:"height" json:"height"`
	Format      string `yaml:"format" json:"format"`
	ShareHandle string `yaml:"shareHandle" json:"shareHandle"`
	Host        string `yaml:"host,omitempty" json:"host,omitempty"`
	Error       string `yaml:"error,omitempty" json:"error,omitempty"`
}

type senderLister interface {
	Senders() ([]string, error)
	ActiveSender() (string, error)
	SenderInfo(name string) (spout.SenderInfo, error)
}

func listSenders(ns senderLister) ([]senderRow, error) {
	names, err := ns.Senders()
	if err != nil {
		return nil, fmt.Errorf("read sender list: %w", err)
	}
	active, err := ns.ActiveSender()
	if err != nil {
		return nil, fmt.Errorf("read active sender: %w", err)
	}

	rows := make([]senderRow, 0, len(names))
	for _, name := range names {
		row := senderRow{Name: name, Active: name == active}
		info, err := ns.SenderInfo(name)
		if err != nil {
			row.Error = err.Error()
		} else {
			row.Width = info.Width
			row.Height = info.Height
			row.Format = info.Format.String()
			row.ShareHandle = fmt.Sprintf("0x%08x", info.ShareHandle)
			row.Host = info.Description
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func writeListing(w io.Writer, rows []senderRow, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(rows)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tACTIVE\tSIZE\tFORMAT\tHANDLE")
		for _, r := range rows {
			if r.Error != "" {
				fmt.Fprintf(tw, "%s\t%v\t-\t-\t%s\n", r.Name, r.Active, r.Error)
				continue
			}
			fmt.Fprintf(tw, "%s\t%v\t%dx%d\t%s\t%s\n", r.Name, r.Active, r.Width, r.Height, r.Format, r.ShareHandle)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
