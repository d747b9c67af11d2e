package ddbrestore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
)

var throttlingCodes = map[string]bool{
	"ProvisionedThroughputExceededException": true,
	"ThrottlingException":                    true,
	"RequestLimitExceeded":                   true,
	"LimitExceededException":                 true,
}

func isThrottlingError(err error) bool {
	var ptee *types.ProvisionedThroughputExceededException
	if errors.As(err, &ptee) {
		return true
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		return throttlingCodes[ae.ErrorCode()]
	}

	return false
}

func isResourceInUse(err error) bool {
	var riue *types.ResourceInUseException

	return errors.As(err, &riue)
}

// isPermanentDescribeError reports whether polling a table can never succeed.
// Not-found (the table is not visible yet), throttling, server faults and
// transport errors are retried; other client faults such as
// AccessDeniedException are not.
func isPermanentDescribeError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var rnfe *types.ResourceNotFoundException
	if errors.As(err, &rnfe) {
		return false
	}

	if isThrottlingError(err) {
		return false
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		return ae.ErrorFault() == smithy.FaultClient
	}

	return false
}
