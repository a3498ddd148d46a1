package main

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stemsi/degree-audit/internal/service"
)

var requirementsSubMajor string

var majorsCmd = &cobra.Command{
	Use:   "majors",
	Short: "List registered majors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		majors := service.NewMajorService(reg).ListMajors()
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), majors)
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"ID", "Name", "Aliases", "Sub-majors", "Prefixes"})
		table.SetAutoWrapText(false)
		for _, m := range majors {
			subs := make([]string, 0, len(m.SubMajors))
			for _, s := range m.SubMajors {
				key := s.Key
				if key == m.DefaultSubMajor {
					key += "*"
				}
				subs = append(subs, key)
			}
			table.Append([]string{
				fmt.Sprint(m.ID),
				m.Name,
				strings.Join(m.Aliases, ", "),
				strings.Join(subs, ", "),
				strings.Join(m.Prefixes, ", "),
			})
		}
		table.Render()
		return nil
	},
}

var requirementsCmd = &cobra.Command{
	Use:     "requirements MAJOR",
	Short:   "Show thresholds, tables and general-education rules for a major",
	Example: `  audit requirements Psychology --sub-major Applied`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		svc := service.NewMajorService(reg)

		ref, err := svc.Resolve(args[0], requirementsSubMajor, "")
		if err != nil {
			return err
		}
		view, err := svc.Requirements(ref.MajorID, ref.SubMajor)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), view)
		}
		renderRequirements(cmd.OutOrStdout(), view)
		return nil
	},
}

func init() {
	requirementsCmd.Flags().StringVarP(&requirementsSubMajor, "sub-major", "s", "", "Sub-major (concentration)")
}
