package utils

import "github.com/sony/gobreaker"

// ExecuteWithBreaker adapts gobreaker's interface{}-typed Execute to a typed
// call so collaborator clients keep their concrete return types.
func ExecuteWithBreaker[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return res.(T), nil
}
