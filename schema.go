package ddbrestore

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const DEFAULT_KEY_ATTRIBUTE = "id"

// SchemaRegistry resolves table names to creation schemas. It is built once
// at startup and only read afterwards.
type SchemaRegistry struct {
	defaultSchema TableSchema
	schemas       map[string]TableSchema
}

func NewSchemaRegistry(defaultSchema TableSchema, schemas map[string]TableSchema) *SchemaRegistry {
	r := &SchemaRegistry{
		defaultSchema: defaultSchema,
		schemas:       map[string]TableSchema{},
	}
	for name, s := range schemas {
		r.schemas[name] = s
	}

	return r
}

// DefaultSchema is a single string HASH key named "id" with 5/5 provisioned capacity.
func DefaultSchema() TableSchema {
	return TableSchema{
		Keys: []KeyAttribute{
			{Name: DEFAULT_KEY_ATTRIBUTE, Type: types.ScalarAttributeTypeS, Role: types.KeyTypeHash},
		},
		Capacity: DefaultCapacity(),
	}
}

func userSchema() TableSchema {
	return TableSchema{
		Keys: []KeyAttribute{
			{Name: "id", Type: types.ScalarAttributeTypeS, Role: types.KeyTypeHash},
		},
		GlobalIndexes: []SecondaryIndex{
			{
				Name: "EmailIndex",
				Keys: []KeyAttribute{
					{Name: "email", Type: types.ScalarAttributeTypeS, Role: types.KeyTypeHash},
				},
				Projection: types.ProjectionTypeAll,
				Capacity:   DefaultCapacity(),
			},
		},
		Capacity: DefaultCapacity(),
	}
}

func DefaultRegistry() *SchemaRegistry {
	return NewSchemaRegistry(DefaultSchema(), map[string]TableSchema{
		"User": userSchema(),
	})
}

// Resolve never fails: unknown names get the default schema.
func (r *SchemaRegistry) Resolve(tableName string) TableSchema {
	if s, ok := r.schemas[tableName]; ok {
		return s
	}

	return r.defaultSchema
}

func (r *SchemaRegistry) Has(tableName string) bool {
	_, ok := r.schemas[tableName]

	return ok
}
