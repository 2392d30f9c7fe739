package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reoring/pulsarschema/avro"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <schema-file>...",
		Short: "Validate schema documents",
		Long:  "Parse each document and confirm an independent Avro implementation accepts it.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				s, err := avro.ParseFile(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := avro.Check(s); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s)\n", path, displayName(s))
			}
			return nil
		},
	}
}

func newCanonicalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "canonical <schema-file>",
		Short: "Print the Parsing Canonical Form of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := avro.ParseFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(avro.Canonical(s)))
			return nil
		},
	}
}

func newFingerprintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <schema-file>",
		Short: "Print the CRC-64-AVRO fingerprint of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := avro.ParseFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%016x\n", avro.Fingerprint64(s))
			return nil
		},
	}
}

func displayName(s *avro.Schema) string {
	if name := s.FullName(); name != "" {
		return name
	}
	return string(s.Type)
}
