package sqlite

import (
	"context"

	"github.com/sqlink-ai/sqlink-engine/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.Registration{
		Type: "sqlite",
		Executor: func(ctx context.Context, dsn string) (datasource.SQLExecutor, error) {
			return New(ctx, dsn)
		},
		SchemaSource: func(ctx context.Context, dsn string) (datasource.SchemaSource, error) {
			return New(ctx, dsn)
		},
	})
}
