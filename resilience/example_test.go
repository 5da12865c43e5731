package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/gymcache/resilience"
)

func ExampleNewRetry() {
	r := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	fmt.Println("attempts:", attempts, "err:", err)
	// Output:
	// attempts: 3 err: <nil>
}

func ExampleDo() {
	r := resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 1})

	names, err := resilience.Do(context.Background(), r, func(ctx context.Context) ([]string, error) {
		return []string{"push-ups", "squats"}, nil
	})

	fmt.Println(names, err)
	// Output:
	// [push-ups squats] <nil>
}

func ExampleNewExecutor() {
	exec := resilience.NewExecutor(
		resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 4})),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond})),
		resilience.WithTimeout(time.Second),
	)

	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})

	fmt.Println("err:", err)
	// Output:
	// err: <nil>
}
