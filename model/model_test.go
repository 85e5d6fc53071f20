package model_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-edge/model"
)

func blogDefinitions() []model.Definition {
	return []model.Definition{
		{
			Table: "Post",
			Fields: []model.FieldDefinition{
				{Name: "uuid", Type: "Bytes", Default: "dbgenerated(\"(uuid_to_bin(uuid()))\")", ID: true},
				{Name: "title", Type: "String"},
				{Name: "createdAt", Type: "DateTime", Default: "now()"},
				{Name: "authorUuid", Type: "@db.Binary(16)"},
			},
			Relations: []model.RelationDefinition{
				{
					Name:        "author",
					Cardinality: model.One,
					From:        model.ColumnRef{Table: "Post", Column: "authorUuid"},
					To:          model.ColumnRef{Table: "User", Column: "uuid"},
				},
			},
		},
		{
			Table: "User",
			Fields: []model.FieldDefinition{
				{Name: "uuid", Type: "@db.Binary(16)", ID: true},
				{Name: "email", Type: "String"},
			},
		},
		{
			Table: "Comment",
			Fields: []model.FieldDefinition{
				{Name: "id", Type: "Int", Default: "autoincrement()", ID: true},
			},
		},
	}
}

func TestRegister(t *testing.T) {
	reg, err := model.Register(blogDefinitions()...)
	require.NoError(t, err)
	assert.Equal(t, []string{"comment", "post", "user"}, reg.Names())

	post, ok := reg.Model("Post")
	require.True(t, ok)
	assert.Equal(t, "Post", post.Table)
	assert.Equal(t, model.PrimaryKey{Field: "uuid", Strategy: model.KeyExpression, Expression: "UUID()"}, post.PrimaryKey)
	assert.Equal(t, "BIN_TO_UUID(uuid, 0)", post.Column("uuid").ReadExpr("uuid"))
	assert.Equal(t, "UUID_TO_BIN(?, 0)", post.Column("uuid").WriteExpr("?"))
	assert.Equal(t, "DATE_FORMAT(createdAt, '%Y-%m-%dT%TZ')", post.Column("createdAt").ReadExpr("createdAt"))
	assert.Equal(t, "title", post.Column("title").ReadExpr("title"))
	assert.Equal(t,
		"*, BIN_TO_UUID(`uuid`, 0) as `uuid`, DATE_FORMAT(`createdAt`, '%Y-%m-%dT%TZ') as `createdAt`, BIN_TO_UUID(`authorUuid`, 0) as `authorUuid`",
		post.SelectAll)

	rel, ok := post.Relation("author")
	require.True(t, ok)
	assert.Equal(t, model.One, rel.Cardinality)
	assert.Equal(t, "Post.authorUuid", rel.From.String())

	user, ok := reg.Related(rel)
	require.True(t, ok)
	assert.Equal(t, "user", user.Name)

	comment, ok := reg.ByTable("Comment")
	require.True(t, ok)
	assert.Equal(t, model.KeyAutoIncrement, comment.PrimaryKey.Strategy)
}

func TestRegisterSwapFlag(t *testing.T) {
	reg, err := model.Register(model.Definition{
		Table:  "Token",
		Fields: []model.FieldDefinition{{Name: "id", Default: "uuid_to_bin(uuid(), 1)", ID: true}},
	})
	require.NoError(t, err)
	tok, _ := reg.Model("token")
	assert.Equal(t, "BIN_TO_UUID(id, 1)", tok.Column("id").ReadExpr("id"))
}

func TestRegisterMissingID(t *testing.T) {
	_, err := model.Register(model.Definition{
		Table:  "Post",
		Fields: []model.FieldDefinition{{Name: "title", Type: "String"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))

	var cfgErr *model.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "Post", cfgErr.Model)
	assert.Contains(t, err.Error(), "missing 'id' field")
}

func TestRegisterUnknownRelationTarget(t *testing.T) {
	defs := blogDefinitions()[:1]
	_, err := model.Register(defs...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
	assert.Contains(t, err.Error(), `unknown table "User"`)
}

func TestKeyStrategyFromDefault(t *testing.T) {
	tests := []struct {
		name     string
		field    model.FieldDefinition
		strategy model.KeyStrategy
		expr     string
	}{
		{"autoincrement", model.FieldDefinition{Name: "id", Default: "autoincrement()", ID: true}, model.KeyAutoIncrement, ""},
		{"uuid", model.FieldDefinition{Name: "id", Type: "String", Default: "uuid()", ID: true}, model.KeyExpression, "UUID()"},
		{"dbgenerated", model.FieldDefinition{Name: "id", Type: "String", Default: `dbgenerated("UUID_SHORT()")`, ID: true}, model.KeyExpression, "UUID_SHORT()"},
		{"supplied", model.FieldDefinition{Name: "slug", Type: "String", ID: true}, model.KeySupplied, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := model.Register(model.Definition{Table: "T", Fields: []model.FieldDefinition{tt.field}})
			require.NoError(t, err)
			m, _ := reg.Model("t")
			assert.Equal(t, tt.strategy, m.PrimaryKey.Strategy)
			assert.Equal(t, tt.expr, m.PrimaryKey.Expression)
		})
	}
}
