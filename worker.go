package ddbrestore

import (
	"context"
)

type Task interface {
	Run(ctx context.Context) Result
}

type Result interface {
	Count() int
	Error() error
}

func worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for t := range tasks {
		results <- t.Run(ctx)
	}
}
