package utils

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// ErrExec executes a list of functions concurrently and returns the first error.
// The context handed to each function is cancelled as soon as one of them fails.
func ErrExec(ctx context.Context, functions ...func(ctx context.Context) error) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for _, one := range functions {
		group.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
				return one(groupCtx)
			}
		})
	}

	return group.Wait()
}

// CloseAll closes every closer in order, even after a failure, and returns all
// errors that occurred. Nil closers are skipped.
func CloseAll(closers ...io.Closer) error {
	var multErr error
	for _, closer := range closers {
		if closer == nil {
			continue
		}
		if err := closer.Close(); err != nil {
			multErr = multierror.Append(multErr, err)
		}
	}
	return multErr
}

// ErrExecFormat formats the error returned from a function according to the provided format string.
func ErrExecFormat(format string, function func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := function(ctx); err != nil {
			return fmt.Errorf(format, err)
		}
		return nil
	}
}
