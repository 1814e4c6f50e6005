package random

import (
	"crypto/rand"
	"math/big"

	"github.com/myrjola/whodunit/internal/errors"
)

var allowedLetters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Letters returns a random string of n letters, e.g. for naming in-memory test databases.
func Letters(n uint) (string, error) {
	letters := make([]rune, n)
	for i := range letters {
		letterIndex, err := IntN(len(allowedLetters))
		if err != nil {
			return "", err
		}
		letters[i] = allowedLetters[letterIndex]
	}
	return string(letters), nil
}

// IntN returns a uniform random integer in [0, n).
func IntN(n int) (int, error) {
	if n <= 0 {
		return 0, errors.New("n must be positive")
	}
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, errors.Wrap(err, "read random int")
	}
	return int(idx.Int64()), nil
}

// Pick returns one element of xs chosen uniformly at random. Repeated calls may
// return the same element, i.e. this is sampling with replacement.
func Pick[T any](xs []T) (T, error) {
	var zero T
	if len(xs) == 0 {
		return zero, errors.New("cannot pick from empty slice")
	}
	idx, err := IntN(len(xs))
	if err != nil {
		return zero, err
	}
	return xs[idx], nil
}

// Sample returns k distinct elements of xs chosen uniformly at random, i.e. sampling
// without replacement. It never returns more elements than xs holds.
func Sample[T any](xs []T, k int) ([]T, error) {
	if k > len(xs) {
		k = len(xs)
	}
	if k <= 0 {
		return nil, nil
	}
	// Partial Fisher-Yates shuffle over a copy so that callers keep their slice order.
	shuffled := make([]T, len(xs))
	copy(shuffled, xs)
	for i := 0; i < k; i++ {
		offset, err := IntN(len(shuffled) - i)
		if err != nil {
			return nil, err
		}
		j := i + offset
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:k], nil
}
