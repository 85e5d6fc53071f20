package commands

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"

	"github.com/satishbabariya/prisma-edge/cli/internal/config"
	"github.com/satishbabariya/prisma-edge/cli/internal/ui"
	"github.com/satishbabariya/prisma-edge/connector/mysql"
	"github.com/satishbabariya/prisma-edge/internal/debug"
	"github.com/satishbabariya/prisma-edge/psl/diagnostics"
	"github.com/satishbabariya/prisma-edge/query/ast"
	"github.com/satishbabariya/prisma-edge/query/gql"
	"github.com/satishbabariya/prisma-edge/schema"
)

// getSchemaPath picks the schema path from args, the flag, then the config.
func getSchemaPath(flagValue string, args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	if flagValue != "" {
		return flagValue
	}
	if cfg != nil && cfg.SchemaPath != "" {
		return cfg.SchemaPath
	}
	return "schema.prisma"
}

// loadSchema registers the schema at path. Parse errors are printed with
// the offending source line before being returned.
func loadSchema(path string) (*schema.Schema, error) {
	s, err := schema.LoadFs(config.AppFs, path)
	if err != nil {
		if d, ok := diagnostics.FromError(err); ok {
			if src, rerr := afero.ReadFile(config.AppFs, path); rerr == nil {
				diagnostics.PrettyPrint(ui.Err, path, string(src), d, diagnostics.ErrorColorer{})
				return nil, errors.Newf("%s has parse errors", path)
			}
		}
		return nil, err
	}
	debug.Debug("Loaded schema", "path", path, "models", len(s.Definitions))
	return s, nil
}

// databaseURL prefers the flag, then the config, then the schema's
// datasource url.
func databaseURL(flagValue string, s *schema.Schema) (string, error) {
	switch {
	case flagValue != "":
		return flagValue, nil
	case cfg != nil && cfg.DatabaseURL != "":
		return cfg.DatabaseURL, nil
	case s != nil && s.URL != "":
		return s.URL, nil
	}
	return "", errors.New("no database url: set DATABASE_URL, database_url in .prisma-edge.yaml, or --url")
}

func openDatabase(ctx context.Context, flagValue string, s *schema.Schema) (*mysql.Connector, error) {
	url, err := databaseURL(flagValue, s)
	if err != nil {
		return nil, err
	}
	return mysql.Open(ctx, url, mysql.WithLogger(debug.Logger()))
}

// parseQuery reads the verb and the JSON query descriptor.
func parseQuery(verbName, raw string) (ast.Verb, ast.Args, error) {
	verb, ok := ast.ParseVerb(verbName)
	if !ok {
		names := make([]string, len(ast.Verbs))
		for i, v := range ast.Verbs {
			names[i] = string(v)
		}
		return "", ast.Args{}, errors.Newf("unknown verb %q, expected one of %s", verbName, strings.Join(names, ", "))
	}
	var args ast.Args
	if strings.TrimSpace(raw) == "" {
		return verb, args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return "", ast.Args{}, errors.Wrap(err, "invalid --args")
	}
	return verb, args, nil
}

// readQuery is parseQuery with an optional GraphQL document. When src is
// set, raw holds the document's variables instead of a descriptor.
func readQuery(verbName, raw, src string) (ast.Verb, ast.Args, error) {
	if src == "" {
		return parseQuery(verbName, raw)
	}
	verb, _, err := parseQuery(verbName, "")
	if err != nil {
		return "", ast.Args{}, err
	}
	if strings.HasPrefix(src, "@") {
		b, err := afero.ReadFile(config.AppFs, src[1:])
		if err != nil {
			return "", ast.Args{}, errors.Wrap(err, "read --gql file")
		}
		src = string(b)
	}
	vars := map[string]any{}
	if strings.TrimSpace(raw) != "" {
		var o ast.Ordered
		if err := o.UnmarshalJSON([]byte(raw)); err != nil {
			return "", ast.Args{}, errors.Wrap(err, "invalid --args")
		}
		for _, e := range o {
			vars[e.Key] = e.Value
		}
	}
	q, err := gql.Parse(src, vars)
	if err != nil {
		return "", ast.Args{}, err
	}
	debug.Debug("Read graphql query", "field", q.Field)
	return verb, q.Args, nil
}
