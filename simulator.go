package ddbrestore

import (
	"github.com/pkg/errors"
)

type TableEstimate struct {
	TableName     string
	Mode          DDBMode
	ItemCount     int
	TotalItemSize int
	WriteUnits    int
	OversizeItems []string
	// MalformedItems are the indexes of elements that are not JSON objects.
	MalformedItems []int
}

type SimulateOpt struct {
	Snapshot *Snapshot
	Schemas  *SchemaRegistry
}

// Simulate estimates the write units each table would consume without
// calling DynamoDB. Mode follows the table's resolved schema, so the units
// read as WCUs for provisioned tables and WRUs for on-demand ones.
func Simulate(opt *SimulateOpt) ([]TableEstimate, error) {
	if opt.Snapshot == nil {
		return nil, errors.New("snapshot is required")
	}

	schemas := opt.Schemas
	if schemas == nil {
		schemas = DefaultRegistry()
	}

	var estimates []TableEstimate
	for _, name := range opt.Snapshot.Tables() {
		schema := schemas.Resolve(name)
		est := TableEstimate{
			TableName: name,
			Mode:      schema.Capacity.Mode,
		}

		for i, record := range opt.Snapshot.Records(name) {
			if _, ok := opt.Snapshot.Malformed(name, i); ok {
				est.MalformedItems = append(est.MalformedItems, i)
				continue
			}

			itemResult, err := GetItemSize(record)
			if err != nil {
				return nil, errors.Wrapf(err, "table %s item %s", name, RecordID(record, schema.HashKey()))
			}

			if itemResult.Size > ITEM_SIZE_LIMIT {
				est.OversizeItems = append(est.OversizeItems, RecordID(record, schema.HashKey()))
			}

			est.ItemCount++
			est.TotalItemSize += itemResult.Size
			est.WriteUnits += itemResult.WriteUnit
		}

		estimates = append(estimates, est)
	}

	return estimates, nil
}
