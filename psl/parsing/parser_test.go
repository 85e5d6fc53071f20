package parsing

import (
	"testing"

	"github.com/satishbabariya/prisma-edge/psl/parsing/ast"
)

const blogSchema = `
datasource db {
  provider = "mysql"
  url      = env("DATABASE_URL")
}

generator client {
  provider = "prisma-edge"
}

/// A blog post.
model Post {
  uuid       Bytes    @id @default(dbgenerated("(uuid_to_bin(uuid(), 1))")) @db.Binary(16)
  title      String
  createdAt  DateTime @default(now())
  author     User     @relation(fields: [authorUuid], references: [uuid])
  authorUuid Bytes    @db.Binary(16)

  @@index([authorUuid])
}

model User {
  uuid  Bytes  @id @default(dbgenerated("(uuid_to_bin(uuid(), 1))")) @db.Binary(16)
  email String @unique
  posts Post[]
}

enum Role {
  USER
  ADMIN @map("admin")
}
`

func TestParseBlogSchema(t *testing.T) {
	schema, err := ParseSchemaString("blog.prisma", blogSchema)
	if err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}

	models := schema.Models()
	if len(models) != 2 {
		t.Fatalf("Expected 2 models, got %d", len(models))
	}
	if len(schema.Tops) != 5 {
		t.Errorf("Expected 5 top-level declarations, got %d", len(schema.Tops))
	}

	post, ok := schema.FindModel("Post")
	if !ok {
		t.Fatal("Expected to find model Post")
	}
	if got := len(post.Fields()); got != 5 {
		t.Errorf("Expected 5 fields, got %d", got)
	}
	if _, ok := post.BlockAttribute("index"); !ok {
		t.Error("Expected @@index block attribute")
	}
}

func TestParseFieldAttributes(t *testing.T) {
	schema := MustParseSchemaString("blog.prisma", blogSchema)
	post, _ := schema.FindModel("Post")

	var uuid *ast.Field
	for _, f := range post.Fields() {
		if f.GetName() == "uuid" {
			uuid = f
		}
	}
	if uuid == nil {
		t.Fatal("Expected field uuid")
	}
	if !uuid.HasAttribute("id") {
		t.Error("Expected @id on uuid")
	}
	if !uuid.HasAttribute("db.Binary") {
		t.Error("Expected dotted native type attribute db.Binary")
	}

	def, _ := uuid.Attribute("default")
	value, ok := def.Argument("value", 0)
	if !ok {
		t.Fatal("Expected positional default argument")
	}
	call, ok := value.(*ast.FunctionCall)
	if !ok {
		t.Fatalf("Expected function call, got %T", value)
	}
	if call.Name != "dbgenerated" {
		t.Errorf("Expected dbgenerated, got %s", call.Name)
	}
	inner, _ := call.Arguments.Lookup("", 0)
	if s, ok := inner.(*ast.StringValue); !ok || s.Value != "(uuid_to_bin(uuid(), 1))" {
		t.Errorf("Unexpected dbgenerated argument %v", inner)
	}
}

func TestParseRelationArguments(t *testing.T) {
	schema := MustParseSchemaString("blog.prisma", blogSchema)
	post, _ := schema.FindModel("Post")

	var author *ast.Field
	for _, f := range post.Fields() {
		if f.GetName() == "author" {
			author = f
		}
	}
	if author == nil {
		t.Fatal("Expected field author")
	}
	rel, ok := author.Attribute("relation")
	if !ok {
		t.Fatal("Expected @relation")
	}
	fields, _ := rel.Argument("fields", -1)
	refs, _ := rel.Argument("references", -1)
	if got := fields.(*ast.ArrayExpression).Names(); len(got) != 1 || got[0] != "authorUuid" {
		t.Errorf("Unexpected fields %v", got)
	}
	if got := refs.(*ast.ArrayExpression).Names(); len(got) != 1 || got[0] != "uuid" {
		t.Errorf("Unexpected references %v", got)
	}
}

func TestParseArity(t *testing.T) {
	schema := MustParseSchemaString("test.prisma", `
model User {
  id    Int     @id @default(autoincrement())
  name  String?
  posts Post[]
}
`)
	user, _ := schema.FindModel("User")
	fields := user.Fields()
	want := []ast.FieldArity{ast.FieldArityRequired, ast.FieldArityOptional, ast.FieldArityList}
	for i, f := range fields {
		if f.Arity() != want[i] {
			t.Errorf("Field %s: expected arity %v, got %v", f.GetName(), want[i], f.Arity())
		}
	}
}

func TestParseDatasource(t *testing.T) {
	schema := MustParseSchemaString("blog.prisma", blogSchema)
	ds, ok := schema.Datasource()
	if !ok {
		t.Fatal("Expected datasource block")
	}
	provider, _ := ds.Property("provider")
	if s, ok := provider.(*ast.StringValue); !ok || s.Value != "mysql" {
		t.Errorf("Expected provider mysql, got %v", provider)
	}
	url, _ := ds.Property("url")
	if call, ok := url.(*ast.FunctionCall); !ok || call.Name != "env" {
		t.Errorf("Expected env() call, got %v", url)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unclosed model", "model User {\n  id Int @id\n"},
		{"missing type", "model User {\n  id @id\n}\n"},
		{"unknown top level", "table User {}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSchemaString("bad.prisma", tt.input); err == nil {
				t.Errorf("Expected parse error for %q", tt.input)
			}
		})
	}
}
