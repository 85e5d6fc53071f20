// Package blogtest provides the blog schema shared by the package tests.
package blogtest

import "github.com/satishbabariya/prisma-edge/model"

// Definitions returns the blog tables:
//
//	Post    uuid key from UUID(), one author, many comments
//	User    uuid key from UUID(), many posts
//	Comment autoincrement key, one post
//	Tag     caller-supplied key
//	Account binary uuid key with swap flag 1
func Definitions() []model.Definition {
	return []model.Definition{
		{
			Table: "Post",
			Fields: []model.FieldDefinition{
				{Name: "uuid", Type: "String", Default: "uuid()", ID: true},
				{Name: "title", Type: "String"},
				{Name: "published", Type: "Boolean"},
				{Name: "views", Type: "Int"},
				{Name: "createdAt", Type: "DateTime", Default: "now()"},
				{Name: "authorUuid", Type: "String"},
			},
			Relations: []model.RelationDefinition{
				{
					Name:        "author",
					Cardinality: model.One,
					From:        model.ColumnRef{Table: "Post", Column: "authorUuid"},
					To:          model.ColumnRef{Table: "User", Column: "uuid"},
				},
				{
					Name:        "comments",
					Cardinality: model.Many,
					From:        model.ColumnRef{Table: "Post", Column: "uuid"},
					To:          model.ColumnRef{Table: "Comment", Column: "postUuid"},
				},
			},
		},
		{
			Table: "User",
			Fields: []model.FieldDefinition{
				{Name: "uuid", Type: "String", Default: "uuid()", ID: true},
				{Name: "email", Type: "String"},
				{Name: "name", Type: "String"},
			},
			Relations: []model.RelationDefinition{
				{
					Name:        "posts",
					Cardinality: model.Many,
					From:        model.ColumnRef{Table: "User", Column: "uuid"},
					To:          model.ColumnRef{Table: "Post", Column: "authorUuid"},
				},
			},
		},
		{
			Table: "Comment",
			Fields: []model.FieldDefinition{
				{Name: "id", Type: "Int", Default: "autoincrement()", ID: true},
				{Name: "body", Type: "String"},
				{Name: "postUuid", Type: "String"},
			},
			Relations: []model.RelationDefinition{
				{
					Name:        "post",
					Cardinality: model.One,
					From:        model.ColumnRef{Table: "Comment", Column: "postUuid"},
					To:          model.ColumnRef{Table: "Post", Column: "uuid"},
				},
			},
		},
		{
			Table: "Tag",
			Fields: []model.FieldDefinition{
				{Name: "name", Type: "String", ID: true},
				{Name: "label", Type: "String"},
			},
		},
		{
			Table: "Account",
			Fields: []model.FieldDefinition{
				{Name: "id", Type: "@db.Binary(16)", Default: `dbgenerated("(uuid_to_bin(uuid(), 1))")`, ID: true},
				{Name: "email", Type: "String"},
			},
		},
	}
}

// Registry registers Definitions and panics on failure.
func Registry() *model.Registry {
	return model.MustRegister(Definitions()...)
}

// Model returns the named descriptor from a fresh registry.
func Model(name string) *model.Descriptor {
	m, ok := Registry().Model(name)
	if !ok {
		panic("blogtest: unknown model " + name)
	}
	return m
}
