package gql

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-edge/query/ast"
)

func TestParseSelection(t *testing.T) {
	q, err := Parse(`{
		post {
			uuid
			title
			author { email }
		}
	}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "post", q.Field)
	assert.Equal(t, ast.O(
		"uuid", true,
		"title", true,
		"author", ast.O("select", ast.O("email", true)),
	), q.Args.Select)
	assert.Nil(t, q.Args.Where)
	assert.Nil(t, q.Args.Data)
}

func TestParseFlattensConnections(t *testing.T) {
	q, err := Parse(`query Posts {
		posts {
			edges { node { uuid comments { edges { node { body } } } } }
		}
	}`, nil)
	require.NoError(t, err)
	assert.Equal(t, ast.O(
		"uuid", true,
		"comments", ast.O("select", ast.O("body", true)),
	), q.Args.Select)
}

func TestParseArguments(t *testing.T) {
	q, err := Parse(`query($email: String!) {
		user(where: {email: $email, age: {gt: 21}}, take: 10, skip: 5) { uuid }
	}`, map[string]any{"email": "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, ast.O(
		"email", "ada@example.com",
		"age", ast.O("gt", json.Number("21")),
	), q.Args.Where)
	require.NotNil(t, q.Args.Take)
	require.NotNil(t, q.Args.Skip)
	assert.Equal(t, 10, *q.Args.Take)
	assert.Equal(t, 5, *q.Args.Skip)
}

func TestParseDataFromVariables(t *testing.T) {
	data := ast.O("title", "Hello", "published", true)
	q, err := Parse(`mutation { createPost { uuid } }`, map[string]any{"data": data})
	require.NoError(t, err)
	assert.Equal(t, "createPost", q.Field)
	assert.Equal(t, data, q.Args.Data)
}

func TestParseEmptyObjectsAreAbsent(t *testing.T) {
	q, err := Parse(`{ post(where: {}, data: {}) { uuid } }`, nil)
	require.NoError(t, err)
	assert.Nil(t, q.Args.Where)
	assert.Nil(t, q.Args.Data)
}

func TestParseFragments(t *testing.T) {
	q, err := Parse(`
		query { post { ...Fields title __typename } }
		fragment Fields on Post { uuid title }
	`, nil)
	require.NoError(t, err)
	assert.Equal(t, ast.O("uuid", true, "title", true), q.Args.Select)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		vars  map[string]any
		want  string
	}{
		{"syntax", `{ post {`, nil, "parse graphql query"},
		{"missing variable", `{ post(where: {uuid: $id}) { uuid } }`, nil, "variable $id is not set"},
		{"unknown argument", `{ post(orderBy: "title") { uuid } }`, nil, `unknown argument "orderBy"`},
		{"fractional take", `{ post(take: 1.5) { uuid } }`, nil, "not an integer"},
		{"unknown fragment", `{ post { ...Missing } }`, nil, `unknown fragment "Missing"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.query, tt.vars)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
