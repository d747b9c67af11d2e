package testingutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	OP_CREATE_TABLE   = "CreateTable"
	OP_DESCRIBE_TABLE = "DescribeTable"
	OP_PUT_ITEM       = "PutItem"
)

// Call is one recorded request against FakeDynamoDB.
type Call struct {
	Op     string
	Table  string
	ItemID string
	Status types.TableStatus
	Err    error
}

type fakeTable struct {
	input     *dynamodb.CreateTableInput
	describes int
	status    types.TableStatus
	items     []map[string]types.AttributeValue
}

// FakeDynamoDB is an in-memory stand-in for the CreateTable, DescribeTable
// and PutItem calls of *dynamodb.Client.
type FakeDynamoDB struct {
	// ActivateAfter is how many DescribeTable calls report CREATING before a
	// newly created table turns ACTIVE.
	ActivateAfter int
	// CreateErrors fails CreateTable for the named tables.
	CreateErrors map[string]error
	// DescribeErrors are returned, in order, by the first DescribeTable calls
	// for the named table.
	DescribeErrors map[string][]error
	// PutError, when set, can fail individual PutItem calls.
	PutError func(table string, item map[string]any) error

	mu     sync.Mutex
	tables map[string]*fakeTable
	calls  []Call
}

func NewFakeDynamoDB() *FakeDynamoDB {
	return &FakeDynamoDB{
		CreateErrors:   map[string]error{},
		DescribeErrors: map[string][]error{},
		tables:         map[string]*fakeTable{},
	}
}

// AddTable registers an existing table with the given status.
func (f *FakeDynamoDB) AddTable(name string, status types.TableStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tables[name] = &fakeTable{
		input:  &dynamodb.CreateTableInput{TableName: aws.String(name)},
		status: status,
	}
}

func (f *FakeDynamoDB) record(c Call) {
	f.calls = append(f.calls, c)
}

func (f *FakeDynamoDB) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := aws.ToString(params.TableName)

	if err := f.CreateErrors[name]; err != nil {
		f.record(Call{Op: OP_CREATE_TABLE, Table: name, Err: err})

		return nil, err
	}

	if _, ok := f.tables[name]; ok {
		err := &types.ResourceInUseException{Message: aws.String("Table already exists: " + name)}
		f.record(Call{Op: OP_CREATE_TABLE, Table: name, Err: err})

		return nil, err
	}

	status := types.TableStatusCreating
	if f.ActivateAfter <= 0 {
		status = types.TableStatusActive
	}
	f.tables[name] = &fakeTable{input: params, status: status}
	f.record(Call{Op: OP_CREATE_TABLE, Table: name, Status: status})

	return &dynamodb.CreateTableOutput{
		TableDescription: &types.TableDescription{
			TableName:   aws.String(name),
			TableStatus: status,
		},
	}, nil
}

func (f *FakeDynamoDB) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	name := aws.ToString(params.TableName)

	if queued := f.DescribeErrors[name]; len(queued) > 0 {
		err := queued[0]
		f.DescribeErrors[name] = queued[1:]
		f.record(Call{Op: OP_DESCRIBE_TABLE, Table: name, Err: err})

		return nil, err
	}

	t, ok := f.tables[name]
	if !ok {
		err := &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: " + name)}
		f.record(Call{Op: OP_DESCRIBE_TABLE, Table: name, Err: err})

		return nil, err
	}

	t.describes++
	if t.status == types.TableStatusCreating && t.describes > f.ActivateAfter {
		t.status = types.TableStatusActive
	}
	f.record(Call{Op: OP_DESCRIBE_TABLE, Table: name, Status: t.status})

	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   aws.String(name),
			TableStatus: t.status,
			KeySchema:   t.input.KeySchema,
		},
	}, nil
}

func (f *FakeDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := aws.ToString(params.TableName)

	decoded := map[string]any{}
	if err := attributevalue.UnmarshalMap(params.Item, &decoded); err != nil {
		return nil, err
	}
	id := fmt.Sprint(decoded["id"])

	t, ok := f.tables[name]
	if !ok {
		err := &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: " + name)}
		f.record(Call{Op: OP_PUT_ITEM, Table: name, ItemID: id, Err: err})

		return nil, err
	}

	if f.PutError != nil {
		if err := f.PutError(name, decoded); err != nil {
			f.record(Call{Op: OP_PUT_ITEM, Table: name, ItemID: id, Err: err})

			return nil, err
		}
	}

	t.items = append(t.items, params.Item)
	f.record(Call{Op: OP_PUT_ITEM, Table: name, ItemID: id, Status: t.status})

	return &dynamodb.PutItemOutput{}, nil
}

func (f *FakeDynamoDB) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	calls := make([]Call, len(f.calls))
	copy(calls, f.calls)

	return calls
}

// CallsOf returns the recorded calls of one operation, optionally limited to
// one table when table is not empty.
func (f *FakeDynamoDB) CallsOf(op string, table string) []Call {
	var calls []Call
	for _, c := range f.Calls() {
		if c.Op == op && (table == "" || c.Table == table) {
			calls = append(calls, c)
		}
	}

	return calls
}

// Items returns the successfully written items of a table, decoded.
func (f *FakeDynamoDB) Items(table string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tables[table]
	if !ok {
		return nil
	}

	items := make([]map[string]any, 0, len(t.items))
	for _, item := range t.items {
		decoded := map[string]any{}
		_ = attributevalue.UnmarshalMap(item, &decoded)
		items = append(items, decoded)
	}

	return items
}

func (f *FakeDynamoDB) CreateTableInput(table string) *dynamodb.CreateTableInput {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tables[table]
	if !ok {
		return nil
	}

	return t.input
}
