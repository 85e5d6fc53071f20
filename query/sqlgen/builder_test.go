package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/satishbabariya/prisma-edge/query/ast"
)

func TestBuilderSelect(t *testing.T) {
	w := Where{
		Conditions: []string{"User.email = ?", "`title` LIKE ?"},
		Params:     []any{"a@b.c", "%x%"},
		Joins:      []string{"LEFT JOIN User ON User.uuid = Post.authorUuid"},
	}
	stmt := Select(`JSON_OBJECT("title", title)`).From("Post").Where(w).Exec()
	assert.Equal(t,
		"SELECT JSON_OBJECT(\"title\", title) FROM Post LEFT JOIN User ON User.uuid = Post.authorUuid WHERE User.email = ? AND `title` LIKE ?",
		stmt.SQL)
	assert.Equal(t, []any{"a@b.c", "%x%"}, stmt.Params)
}

func TestBuilderLimit(t *testing.T) {
	base := Select("*").From("Post")
	tests := []struct {
		name       string
		skip, take *int
		want       string
	}{
		{"none", nil, nil, "SELECT * FROM Post"},
		{"zero offset", ast.Int(0), nil, "SELECT * FROM Post"},
		{"take", nil, ast.Int(10), "SELECT * FROM Post LIMIT 0, 10"},
		{"skip and take", ast.Int(5), ast.Int(10), "SELECT * FROM Post LIMIT 5, 10"},
		{"skip only", ast.Int(5), nil, "SELECT * FROM Post LIMIT 5, 18446744073709551615"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Limit(tt.skip, tt.take).Exec().SQL)
		})
	}
}

func TestBuilderUpdateParamOrder(t *testing.T) {
	w := Where{Conditions: []string{"`uuid` = ?"}, Params: []any{"p-1"}}
	stmt := Update("Post").
		Where(w).
		Set("title", "?", "new").
		Set("authorUuid", "UUID_TO_BIN(?, 0)", "u-1").
		Exec()
	assert.Equal(t, "UPDATE Post SET `title` = ?, `authorUuid` = UUID_TO_BIN(?, 0) WHERE `uuid` = ?", stmt.SQL)
	assert.Equal(t, []any{"new", "u-1", "p-1"}, stmt.Params)
}

func TestBuilderUpdateWithJoin(t *testing.T) {
	w := Where{
		Conditions: []string{"User.email = ?"},
		Params:     []any{"a@b.c"},
		Joins:      []string{"LEFT JOIN User ON User.uuid = Post.authorUuid"},
	}
	stmt := Update("Post").Set("published", "?", true).Where(w).Exec()
	assert.Equal(t, "UPDATE Post LEFT JOIN User ON User.uuid = Post.authorUuid SET Post.published = ? WHERE User.email = ?", stmt.SQL)
	assert.Equal(t, []any{true, "a@b.c"}, stmt.Params)
}

func TestBuilderInsert(t *testing.T) {
	stmt := InsertInto("Post").
		Values("uuid", "?", "p-1").
		Values("title", "?", "hello").
		Values("authorUuid", "UUID_TO_BIN(?, 0)", "u-1").
		Exec()
	assert.Equal(t, "INSERT INTO Post (`uuid`, `title`, `authorUuid`) VALUES (?, ?, UUID_TO_BIN(?, 0))", stmt.SQL)
	assert.Equal(t, []any{"p-1", "hello", "u-1"}, stmt.Params)

	assert.Equal(t, "INSERT INTO Comment () VALUES ()", InsertInto("Comment").Exec().SQL)
}

func TestBuilderDelete(t *testing.T) {
	w := Where{Conditions: []string{"`uuid` = ?"}, Params: []any{"p-1"}}
	assert.Equal(t, "DELETE FROM Post WHERE `uuid` = ?", DeleteFrom("Post").Where(w).Exec().SQL)

	joined := Where{
		Conditions: []string{"User.email = ?"},
		Params:     []any{"a@b.c"},
		Joins:      []string{"LEFT JOIN User ON User.uuid = Post.authorUuid"},
	}
	assert.Equal(t,
		"DELETE Post FROM Post LEFT JOIN User ON User.uuid = Post.authorUuid WHERE User.email = ?",
		DeleteFrom("Post").Where(joined).Exec().SQL)
}

func TestBuilderIsImmutable(t *testing.T) {
	base := Select("*").From("Post").Where(Where{Conditions: []string{"`a` = ?"}, Params: []any{1}})
	first := base.Where(Where{Conditions: []string{"`b` = ?"}, Params: []any{2}}).Exec()
	second := base.Where(Where{Conditions: []string{"`c` = ?"}, Params: []any{3}}).Exec()

	assert.Equal(t, "SELECT * FROM Post WHERE `a` = ? AND `b` = ?", first.SQL)
	assert.Equal(t, "SELECT * FROM Post WHERE `a` = ? AND `c` = ?", second.SQL)
	assert.Equal(t, []any{1, 3}, second.Params)
	assert.Equal(t, "SELECT * FROM Post WHERE `a` = ?", base.Exec().SQL)
}

func TestBuilderJoinsDeduplicated(t *testing.T) {
	join := "LEFT JOIN User ON User.uuid = Post.authorUuid"
	stmt := Select("*").From("Post").
		Where(Where{Conditions: []string{"User.a = ?"}, Params: []any{1}, Joins: []string{join}}).
		Where(Where{Conditions: []string{"User.b = ?"}, Params: []any{2}, Joins: []string{join}}).
		Exec()
	assert.Equal(t, "SELECT * FROM Post "+join+" WHERE User.a = ? AND User.b = ?", stmt.SQL)
}

func TestBuilderProbeWithoutTable(t *testing.T) {
	stmt := Select(`JSON_OBJECT("pk", UUID())`).Exec()
	assert.Equal(t, `SELECT JSON_OBJECT("pk", UUID())`, stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestBuilderFromSubquery(t *testing.T) {
	inner := Select("Post.*").From("Post").
		Where(Where{Conditions: []string{"`published` = ?"}, Params: []any{true}}).
		Limit(nil, ast.Int(2)).
		Exec()
	stmt := Select(`JSON_ARRAYAGG(JSON_OBJECT("title", title))`).FromSubquery(inner, "Post").Exec()
	assert.Equal(t,
		"SELECT JSON_ARRAYAGG(JSON_OBJECT(\"title\", title)) FROM (SELECT Post.* FROM Post WHERE `published` = ? LIMIT 0, 2) AS Post",
		stmt.SQL)
	assert.Equal(t, []any{true}, stmt.Params)
}
