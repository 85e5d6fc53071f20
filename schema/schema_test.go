package schema

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-edge/model"
)

const blog = `
datasource db {
  provider = "mysql"
  url      = env("PRISMA_EDGE_TEST_URL")
}

model Post {
  uuid       Bytes    @id @default(dbgenerated("(uuid_to_bin(uuid(), 1))")) @db.Binary(16)
  title      String
  createdAt  DateTime @default(now())
  author     User     @relation(fields: [authorUuid], references: [uuid])
  authorUuid Bytes    @db.Binary(16)
  comments   Comment[]
}

model User {
  uuid  Bytes  @id @default(dbgenerated("(uuid_to_bin(uuid(), 1))")) @db.Binary(16)
  email String @unique
  posts Post[]
}

model Comment {
  id       Int    @id @default(autoincrement())
  body     String
  post     Post   @relation(fields: [postUuid], references: [uuid])
  postUuid Bytes  @db.Binary(16)

  @@map("comments")
}
`

func TestFromString(t *testing.T) {
	t.Setenv("PRISMA_EDGE_TEST_URL", "mysql://root@localhost/blog")

	s, err := FromString("blog.prisma", blog)
	require.NoError(t, err)
	assert.Equal(t, "mysql", s.Provider)
	assert.Equal(t, "mysql://root@localhost/blog", s.URL)
	assert.Equal(t, []string{"comments", "post", "user"}, s.Registry.Names())

	post, ok := s.Registry.Model("Post")
	require.True(t, ok)
	assert.Equal(t, "uuid", post.PrimaryKey.Field)
	assert.Equal(t, model.KeyExpression, post.PrimaryKey.Strategy)
	assert.Equal(t, "BIN_TO_UUID(uuid, 1)", post.Column("uuid").ReadExpr("uuid"))
	assert.Equal(t, "UUID_TO_BIN(?, 0)", post.Column("authorUuid").WriteExpr("?"))
	assert.Equal(t, model.ColumnDateTime, post.Column("createdAt").Type)

	author, ok := post.Relation("author")
	require.True(t, ok)
	assert.Equal(t, model.One, author.Cardinality)
	assert.Equal(t, "Post.authorUuid", author.From.String())
	assert.Equal(t, "User.uuid", author.To.String())

	comments, ok := post.Relation("comments")
	require.True(t, ok)
	assert.Equal(t, model.Many, comments.Cardinality)
	assert.Equal(t, "Post.uuid", comments.From.String())
	assert.Equal(t, "comments.postUuid", comments.To.String())

	user, _ := s.Registry.Model("user")
	posts, ok := user.Relation("posts")
	require.True(t, ok)
	assert.Equal(t, model.Many, posts.Cardinality)
	assert.Equal(t, "User.uuid", posts.From.String())
	assert.Equal(t, "Post.authorUuid", posts.To.String())

	c, ok := s.Registry.ByTable("comments")
	require.True(t, ok)
	assert.Equal(t, model.KeyAutoIncrement, c.PrimaryKey.Strategy)
}

func TestFromStringMissingID(t *testing.T) {
	_, err := FromString("bad.prisma", `
model Tag {
  name String
}
`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
	assert.Contains(t, err.Error(), "missing 'id' field")
}

func TestFromStringParseError(t *testing.T) {
	_, err := FromString("bad.prisma", "model {")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}

func TestFromStringRejectsProvider(t *testing.T) {
	_, err := FromString("pg.prisma", `
datasource db {
  provider = "postgresql"
  url      = "postgres://localhost/db"
}
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported datasource provider postgresql")
}

func TestLoadFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/app/schema.prisma", []byte(blog), 0o644))

	s, err := LoadFs(fs, "/app/schema.prisma")
	require.NoError(t, err)
	assert.Len(t, s.Definitions, 3)

	_, err = LoadFs(fs, "/app/missing.prisma")
	assert.Error(t, err)
}
