package ddbrestore

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type DDBMode = string

var (
	OnDemand    = DDBMode("OnDemand")
	Provisioned = DDBMode("Provisioned")
)

const (
	DEFAULT_READ_CAPACITY  int64 = 5
	DEFAULT_WRITE_CAPACITY int64 = 5
)

type KeyAttribute struct {
	Name string
	Type types.ScalarAttributeType
	Role types.KeyType
}

type Capacity struct {
	Mode  DDBMode
	Read  int64
	Write int64
}

type SecondaryIndex struct {
	Name             string
	Keys             []KeyAttribute
	Projection       types.ProjectionType
	NonKeyAttributes []string
	Capacity         Capacity
}

// TableSchema is everything CreateTable needs besides the table name.
type TableSchema struct {
	Keys          []KeyAttribute
	GlobalIndexes []SecondaryIndex
	LocalIndexes  []SecondaryIndex
	Capacity      Capacity
}

func DefaultCapacity() Capacity {
	return Capacity{
		Mode:  Provisioned,
		Read:  DEFAULT_READ_CAPACITY,
		Write: DEFAULT_WRITE_CAPACITY,
	}
}

// HashKey returns the name of the HASH key attribute, or "" when none is declared.
func (s TableSchema) HashKey() string {
	for _, k := range s.Keys {
		if k.Role == types.KeyTypeHash {
			return k.Name
		}
	}

	return ""
}

// AttributeDefinitions declares every key attribute of the table and its
// indexes once, in first-seen order.
func (s TableSchema) AttributeDefinitions() []types.AttributeDefinition {
	seen := map[string]bool{}
	var defs []types.AttributeDefinition

	add := func(keys []KeyAttribute) {
		for _, k := range keys {
			if seen[k.Name] {
				continue
			}
			seen[k.Name] = true
			defs = append(defs, types.AttributeDefinition{
				AttributeName: aws.String(k.Name),
				AttributeType: k.Type,
			})
		}
	}

	add(s.Keys)
	for _, idx := range s.GlobalIndexes {
		add(idx.Keys)
	}
	for _, idx := range s.LocalIndexes {
		add(idx.Keys)
	}

	return defs
}

func keySchema(keys []KeyAttribute) []types.KeySchemaElement {
	elements := make([]types.KeySchemaElement, 0, len(keys))
	for _, k := range keys {
		elements = append(elements, types.KeySchemaElement{
			AttributeName: aws.String(k.Name),
			KeyType:       k.Role,
		})
	}

	return elements
}

func projection(idx SecondaryIndex) *types.Projection {
	p := &types.Projection{ProjectionType: idx.Projection}
	if p.ProjectionType == "" {
		p.ProjectionType = types.ProjectionTypeAll
	}
	if p.ProjectionType == types.ProjectionTypeInclude {
		p.NonKeyAttributes = idx.NonKeyAttributes
	}

	return p
}

func throughput(c Capacity) *types.ProvisionedThroughput {
	return &types.ProvisionedThroughput{
		ReadCapacityUnits:  aws.Int64(c.Read),
		WriteCapacityUnits: aws.Int64(c.Write),
	}
}

func (s TableSchema) CreateTableInput(tableName string) *dynamodb.CreateTableInput {
	onDemand := s.Capacity.Mode == OnDemand

	input := &dynamodb.CreateTableInput{
		TableName:            aws.String(tableName),
		KeySchema:            keySchema(s.Keys),
		AttributeDefinitions: s.AttributeDefinitions(),
	}

	if onDemand {
		input.BillingMode = types.BillingModePayPerRequest
	} else {
		input.BillingMode = types.BillingModeProvisioned
		input.ProvisionedThroughput = throughput(s.Capacity)
	}

	for _, idx := range s.GlobalIndexes {
		gsi := types.GlobalSecondaryIndex{
			IndexName:  aws.String(idx.Name),
			KeySchema:  keySchema(idx.Keys),
			Projection: projection(idx),
		}
		if !onDemand {
			c := idx.Capacity
			if c.Read == 0 {
				c.Read = s.Capacity.Read
			}
			if c.Write == 0 {
				c.Write = s.Capacity.Write
			}
			gsi.ProvisionedThroughput = throughput(c)
		}
		input.GlobalSecondaryIndexes = append(input.GlobalSecondaryIndexes, gsi)
	}

	for _, idx := range s.LocalIndexes {
		input.LocalSecondaryIndexes = append(input.LocalSecondaryIndexes, types.LocalSecondaryIndex{
			IndexName:  aws.String(idx.Name),
			KeySchema:  keySchema(idx.Keys),
			Projection: projection(idx),
		})
	}

	return input
}
