package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-edge/cli/internal/ui"
	"github.com/satishbabariya/prisma-edge/model"
)

var validateCmd = &cobra.Command{
	Use:   "validate [schema-path]",
	Short: "Validate a Prisma schema file",
	Long: `Validate a Prisma schema file and register its models.

This command will:
- Parse the schema file
- Derive a table descriptor for every model
- Check primary keys and relations
- Display the registered models`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

var (
	validateSchemaPath string
)

func init() {
	validateCmd.Flags().StringVarP(&validateSchemaPath, "schema", "s", "", "Path to schema file")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	schemaPath := getSchemaPath(validateSchemaPath, args)

	ui.PrintHeader("Prisma-Edge", "Validate Schema")

	s, err := loadSchema(schemaPath)
	if err != nil {
		return err
	}

	names := s.Registry.Names()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		m, _ := s.Registry.Model(name)
		rows = append(rows, modelRow(m))
	}
	if err := ui.PrintTable([]string{"Model", "Table", "Primary key", "Key strategy", "Fields", "Relations"}, rows); err != nil {
		return err
	}

	if s.Provider == "" {
		ui.PrintWarning("No datasource block, assuming mysql")
	}
	ui.PrintSuccess("%s is valid (%d models)", schemaPath, len(names))
	return nil
}

func modelRow(m *model.Descriptor) []string {
	relations := make([]string, 0, len(m.Relations))
	for field, rel := range m.Relations {
		relations = append(relations, fmt.Sprintf("%s -> %s", field, rel.Model))
	}
	sort.Strings(relations)
	return []string{
		m.Name,
		m.Table,
		m.PrimaryKey.Field,
		m.PrimaryKey.Strategy.String(),
		fmt.Sprint(len(m.Fields)),
		strings.Join(relations, ", "),
	}
}
