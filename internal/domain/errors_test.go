package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "wrapped retryable error",
			err:  fmt.Errorf("lookup: %w", &RetryableError{Err: errors.New("connection reset")}),
			want: true,
		},
		{
			name: "fetch error with 503",
			err:  NewFetchError("https://pypi.org", 503, errors.New("HTTP 503")),
			want: true,
		},
		{
			name: "fetch error with 429",
			err:  NewFetchError("https://pypi.org", 429, errors.New("HTTP 429")),
			want: true,
		},
		{
			name: "fetch error with 404",
			err:  NewFetchError("https://pypi.org", 404, errors.New("HTTP 404")),
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestFetchErrorUnwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("HTTP 404")
	err := NewFetchError("https://pypi.org/pypi/ghost/json", 404, inner)

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "https://pypi.org/pypi/ghost/json")
}
