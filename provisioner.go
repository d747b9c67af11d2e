package ddbrestore

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type ProvisionStatus string

const (
	ProvisionCreated       ProvisionStatus = "created"
	ProvisionAlreadyExists ProvisionStatus = "already_exists"
	ProvisionFailed        ProvisionStatus = "failed"
)

type ProvisionResult struct {
	Table  string
	Status ProvisionStatus
	Err    error
}

func (r ProvisionResult) Ok() bool {
	return r.Status != ProvisionFailed
}

var ErrEmptyTableName = errors.New("table name is empty")

type Provisioner struct {
	client CreateTableAPI
	logger *zap.Logger
}

func NewProvisioner(client CreateTableAPI, logger *zap.Logger) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Provisioner{client: client, logger: logger}
}

// Ensure creates the table. A table that already exists counts as success so
// the same snapshot can be restored twice.
func (p *Provisioner) Ensure(ctx context.Context, tableName string, schema TableSchema) ProvisionResult {
	if tableName == "" {
		p.logger.Warn("create table failed", zap.Error(ErrEmptyTableName))

		return ProvisionResult{Table: tableName, Status: ProvisionFailed, Err: ErrEmptyTableName}
	}

	_, err := p.client.CreateTable(ctx, schema.CreateTableInput(tableName))

	switch {
	case err == nil:
		p.logger.Debug("created table", zap.String("table", tableName))

		return ProvisionResult{Table: tableName, Status: ProvisionCreated}
	case isResourceInUse(err):
		p.logger.Debug("table already exists", zap.String("table", tableName))

		return ProvisionResult{Table: tableName, Status: ProvisionAlreadyExists}
	default:
		p.logger.Warn("create table failed", zap.String("table", tableName), zap.Error(err))

		return ProvisionResult{
			Table:  tableName,
			Status: ProvisionFailed,
			Err:    errors.Wrapf(err, "create table %s", tableName),
		}
	}
}
