package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/brogergvhs/noveld/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var (
	flagAddFrom    string
	flagProfileNew string
	flagForce      bool
)

func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)

	resp, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	resp = strings.TrimSpace(strings.ToLower(resp))
	return resp == "y" || resp == "yes"
}

func activeLabel() (string, error) {
	label, err := config.CurrentLabel()
	if errors.Is(err, config.ErrNoConfig) {
		return "", fmt.Errorf("no active config, run `noveld config init` first")
	}
	return label, err
}

var configAddCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Create a profile for a novel, from defaults or from an existing YAML file",
	Example: `  noveld config add lotm --novel lord-of-the-mysteries
  noveld config add work --from ./work.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := strings.TrimSpace(args[0])

		if flagAddFrom != "" {
			if err := config.AddConfig(label, flagAddFrom); err != nil {
				return err
			}
			fmt.Printf("Imported %s as config %q\n", flagAddFrom, label)
			return nil
		}

		path, err := config.CreateConfig(label, flagProfileNew)
		if err != nil {
			return err
		}

		fmt.Printf("Created config %q: %s\n", label, path)
		return nil
	},
}

var configSwitchCmd = &cobra.Command{
	Use:   "switch [label]",
	Short: "Switch the active profile, picking from a list when no label is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string

		if len(args) == 1 {
			label = args[0]
		} else {
			list, err := config.ListProfiles()
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return fmt.Errorf("no configs available, run `noveld config init` first")
			}

			cursor := 0
			for i, p := range list {
				if p.Active {
					cursor = i
				}
			}

			prompt := promptui.Select{
				Label:     "Select config",
				Items:     list,
				CursorPos: cursor,
				Templates: &promptui.SelectTemplates{
					Label:    "{{ . }}",
					Active:   `> {{ .Label | cyan }}{{ if .Active }} (active){{ end }}  {{ .Summary | faint }}`,
					Inactive: `  {{ .Label }}{{ if .Active }} (active){{ end }}  {{ .Summary | faint }}`,
					Selected: `{{ .Label | green }}`,
					Details: `
Novel:  {{ .Novel }}
Site:   {{ .Site }}
Output: {{ .Output }}`,
				},
			}

			idx, _, err := prompt.Run()
			if err != nil {
				return fmt.Errorf("selection cancelled")
			}

			label = list[idx].Label
		}

		if err := config.SwitchConfig(label); err != nil {
			return err
		}

		fmt.Println("Switched to:", label)
		return nil
	},
}

var configRenameCmd = &cobra.Command{
	Use:   "rename <old_label> <new_label>",
	Short: "Rename a profile, keeping it active if it was",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.RenameConfig(args[0], args[1]); err != nil {
			return err
		}

		fmt.Printf("Renamed config %q to %q\n", args[0], args[1])
		return nil
	},
}

var configRemoveCmd = &cobra.Command{
	Use:   "remove <label>",
	Short: "Remove a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := args[0]

		if active, _ := config.CurrentLabel(); label == active && !flagForce {
			if !confirm(fmt.Sprintf("Config %q is currently active. Remove it anyway?", label)) {
				fmt.Println("Aborted.")
				return nil
			}
		}

		fellBack, err := config.RemoveConfig(label)
		if err != nil {
			return err
		}

		fmt.Printf("Removed configuration %q\n", label)
		if fellBack {
			fmt.Println("Active config is now:", config.DefaultLabel)
		}
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset [label]",
	Short: "Reset a profile (the active one by default) to the defaults, keeping its novel",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string
		if len(args) == 1 {
			label = args[0]
		} else {
			var err error
			if label, err = activeLabel(); err != nil {
				return err
			}
		}

		if !flagForce && !confirm(fmt.Sprintf("Overwrite config %q with the defaults?", label)) {
			fmt.Println("Aborted.")
			return nil
		}

		path, err := config.ResetConfig(label, flagProfileNew)
		if err != nil {
			return err
		}

		fmt.Printf("Reset config %q: %s\n", label, path)
		return nil
	},
}

func init() {
	configAddCmd.Flags().StringVar(&flagAddFrom, "from", "", "copy settings from this YAML file")
	configAddCmd.Flags().StringVarP(&flagProfileNew, "novel", "n", "", "novel slug or title stored in the profile")

	configRemoveCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "do not ask for confirmation")

	configResetCmd.Flags().StringVarP(&flagProfileNew, "novel", "n", "", "replace the profile's novel")
	configResetCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "do not ask for confirmation")

	configCmd.AddCommand(configAddCmd, configSwitchCmd, configRenameCmd, configRemoveCmd, configResetCmd)
}
