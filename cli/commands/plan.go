package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-edge/cli/internal/ui"
	"github.com/satishbabariya/prisma-edge/query/planner"
	"github.com/satishbabariya/prisma-edge/runtime/client"
)

var planCmd = &cobra.Command{
	Use:   "plan <model> <verb>",
	Short: "Print the statements a query compiles to",
	Long: `Compile a query descriptor into its statement pipeline without
touching a database.

Each statement is printed with its parameters and the directive that
ties it to the statements before it.`,
	Example: `  prisma-edge plan post upsert --args '{"where":{"uuid":"p-1"},"create":{"title":"Hi"},"update":{"title":"Hi"}}'
  prisma-edge plan user findMany --markdown`,
	Args: cobra.ExactArgs(2),
	RunE: runPlan,
}

var (
	planSchemaPath string
	planArgs       string
	planGQL        string
	planMarkdown   bool
	planJSON       bool
)

func init() {
	planCmd.Flags().StringVarP(&planSchemaPath, "schema", "s", "", "Path to schema file")
	planCmd.Flags().StringVarP(&planArgs, "args", "a", "", "Query descriptor as JSON")
	planCmd.Flags().StringVar(&planGQL, "gql", "", "GraphQL query (or @file); --args then holds its variables")
	planCmd.Flags().BoolVar(&planMarkdown, "markdown", false, "Render the pipeline as markdown")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print the pipeline as JSON")
	planCmd.MarkFlagsMutuallyExclusive("markdown", "json")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	s, err := loadSchema(getSchemaPath(planSchemaPath, nil))
	if err != nil {
		return err
	}
	verb, qargs, err := readQuery(args[1], planArgs, planGQL)
	if err != nil {
		return err
	}

	mc, err := client.New(nil, s.Registry, client.WithStrict(cfg.Strict)).Model(args[0])
	if err != nil {
		return err
	}
	ops, err := mc.Plan(verb, qargs)
	if err != nil {
		return err
	}

	switch {
	case planJSON:
		return ui.PrintJSON(pipelineJSON(ops))
	case planMarkdown:
		return ui.PrintMarkdown(pipelineMarkdown(mc.Descriptor().Name+"."+string(verb), ops))
	}
	for i, op := range ops {
		ui.PrintSection(fmt.Sprintf("%d. %s", i+1, op.Label))
		ui.PrintCodeBlock(op.SQL, "sql")
		if len(op.Params) > 0 {
			ui.PrintInfo("params %s", formatParams(op.Params))
		}
		if d := directiveString(op); d != "" {
			ui.PrintInfo("%s", d)
		}
	}
	return nil
}

type operationJSON struct {
	Label     string `json:"label"`
	SQL       string `json:"sql"`
	Params    []any  `json:"params"`
	Directive string `json:"directive,omitempty"`
	Result    bool   `json:"result,omitempty"`
}

func pipelineJSON(ops []planner.Operation) []operationJSON {
	out := make([]operationJSON, len(ops))
	for i, op := range ops {
		params := make([]any, len(op.Params))
		for j, p := range op.Params {
			if ph, ok := p.(planner.Placeholder); ok {
				params[j] = ph.String()
				continue
			}
			params[j] = p
		}
		out[i] = operationJSON{
			Label:     op.Label,
			SQL:       op.SQL,
			Params:    params,
			Directive: directiveString(op),
			Result:    op.ResultBearing,
		}
	}
	return out
}

func pipelineMarkdown(title string, ops []planner.Operation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	for i, op := range ops {
		fmt.Fprintf(&b, "## %d. %s\n\n```sql\n%s\n```\n\n", i+1, op.Label, op.SQL)
		if len(op.Params) > 0 {
			fmt.Fprintf(&b, "- params: `%s`\n", formatParams(op.Params))
		}
		if d := directiveString(op); d != "" {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatParams(params []any) string {
	parts := make([]string, len(params))
	for i, p := range params {
		switch v := p.(type) {
		case planner.Placeholder:
			parts[i] = v.String()
		case string:
			parts[i] = fmt.Sprintf("%q", v)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// directiveString is the directive part of Operation.String.
func directiveString(op planner.Operation) string {
	var parts []string
	d := op.Directive
	if d.When.IsSet() {
		parts = append(parts, "if "+d.When.String())
	}
	for _, bind := range d.Before {
		parts = append(parts, fmt.Sprintf("bind %s from %s", bind.Placeholder, bind.Key))
	}
	switch d.After.Kind {
	case planner.CaptureField:
		parts = append(parts, fmt.Sprintf("store .%s as %s", d.After.Field, d.After.Key))
		if d.After.Required {
			parts = append(parts, "fail if missing")
		}
	case planner.CaptureTruthy:
		parts = append(parts, "store truthiness as "+d.After.Key)
	}
	if d.Silent.IsSet() {
		parts = append(parts, "silent if "+d.Silent.String())
	}
	if op.ResultBearing {
		parts = append(parts, "returns result")
	}
	return strings.Join(parts, "; ")
}
