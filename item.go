package ddbrestore

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
)

const (
	WU_UNIT = 1000 // 1KB
	RU_UNIT = 4000 // 4KB

	ITEM_SIZE_LIMIT = 400000 // 400KB
)

type ItemResult struct {
	Size      int
	ReadUnit  int
	WriteUnit int
}

func itemSizeRoundUp(size int, unitSize int) int {
	remainder := size % unitSize
	quotient := size / unitSize

	if remainder > 0 {
		return (quotient + 1) * unitSize
	}

	return quotient * unitSize
}

func getRuSize(size int) int {
	return itemSizeRoundUp(size, RU_UNIT) / RU_UNIT
}

func getWuSize(size int) int {
	return itemSizeRoundUp(size, WU_UNIT) / WU_UNIT
}

func GetItemSize(record Record) (*ItemResult, error) {
	size, err := getItemSize(record)
	if err != nil {
		return nil, err
	}

	return &ItemResult{
		Size:      size,
		ReadUnit:  getRuSize(size),
		WriteUnit: getWuSize(size),
	}, nil
}

func getItemSize(value any) (int, error) {
	var sum int

	switch vt := value.(type) {
	case map[string]any:
		for k, v := range vt {
			l, err := getItemSize(v)
			if err != nil {
				return 0, err
			}
			sum += l + len(k)
		}
	case []any:
		for _, v := range vt {
			l, err := getItemSize(v)
			if err != nil {
				return 0, err
			}
			sum += l
		}
	case string:
		return len(vt), nil
	case json.Number:
		return len(vt.String()), nil
	case float64:
		return len(strconv.FormatFloat(vt, 'f', -1, 64)), nil
	case bool, nil:
		return 1, nil
	default:
		return 0, errors.New("unexpected type error")
	}

	return sum, nil
}

// MarshalRecord converts a snapshot record into a DynamoDB item. json.Number
// values become N attributes verbatim; everything else goes through
// attributevalue.
func MarshalRecord(record Record) (map[string]types.AttributeValue, error) {
	if record == nil {
		return nil, ErrRecordMalformed
	}

	item := make(map[string]types.AttributeValue, len(record))
	for k, v := range record {
		av, err := marshalValue(v)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("attribute %s", k))
		}
		item[k] = av
	}

	return item, nil
}

func marshalValue(value any) (types.AttributeValue, error) {
	switch vt := value.(type) {
	case json.Number:
		return &types.AttributeValueMemberN{Value: vt.String()}, nil
	case map[string]any:
		m, err := MarshalRecord(vt)
		if err != nil {
			return nil, err
		}

		return &types.AttributeValueMemberM{Value: m}, nil
	case []any:
		list := make([]types.AttributeValue, 0, len(vt))
		for _, v := range vt {
			av, err := marshalValue(v)
			if err != nil {
				return nil, err
			}
			list = append(list, av)
		}

		return &types.AttributeValueMemberL{Value: list}, nil
	default:
		return attributevalue.Marshal(vt)
	}
}
