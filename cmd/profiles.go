package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/stylelens/internal/observability"
	"github.com/xkilldash9x/stylelens/internal/profile"
)

func newProfilesCmd() *cobra.Command {
	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspects the expected style profiles",
	}
	profilesCmd.AddCommand(newProfilesListCmd(), newProfilesShowCmd())
	return profilesCmd
}

// loadProfileStore reads profiles.path into a store.
func loadProfileStore(cmd *cobra.Command) (*profile.Store, string, error) {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return nil, "", err
	}
	store := profile.NewStore(observability.GetLogger(), cfg.Profiles().Path)
	if err := store.Reload(); err != nil {
		return nil, "", err
	}
	return store, cfg.Profiles().Default, nil
}

func addProfilesFlag(cmd *cobra.Command) {
	cmd.Flags().String("profiles", "", "Expected styles file (JSON or YAML)")
	bindFlag(cmd, "profiles", "profiles.path")
}

func newProfilesListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lists the available profiles in declaration order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, defaultName, err := loadProfileStore(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range store.Names() {
				marker := " "
				if name == defaultName {
					marker = "*"
				}
				p, err := store.Get(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s (%d %s)\n", marker, name, p.Len(), plural(p.Len(), "property", "properties"))
			}
			return nil
		},
	}
	addProfilesFlag(listCmd)
	return listCmd
}

func newProfilesShowCmd() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Prints the expected properties of one profile as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := loadProfileStore(cmd)
			if err != nil {
				return err
			}
			p, err := store.Get(args[0])
			if err != nil {
				return err
			}

			// A mapping node keeps the declaration order.
			body := &yaml.Node{Kind: yaml.MappingNode}
			for _, key := range p.Keys() {
				value, _ := p.Get(key)
				var valueNode yaml.Node
				if err := valueNode.Encode(value); err != nil {
					return fmt.Errorf("failed to encode %s: %w", key, err)
				}
				body.Content = append(body.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, &valueNode)
			}
			doc := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: p.Name}, body,
			}}

			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			if err := encoder.Encode(doc); err != nil {
				return fmt.Errorf("failed to encode profile: %w", err)
			}
			return encoder.Close()
		},
	}
	addProfilesFlag(showCmd)
	return showCmd
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
