package apperr_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexrelay/lexrelay/internal/apperr"
)

func TestFromStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   apperr.Kind
	}{
		{400, apperr.KindValidation},
		{401, apperr.KindAuth},
		{403, apperr.KindPermission},
		{404, apperr.KindNotFound},
		{429, apperr.KindNetwork},
		{500, apperr.KindServer},
		{502, apperr.KindServer},
		{503, apperr.KindServer},
		{504, apperr.KindServer},
		{418, apperr.KindUnknown},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("status_%d", tc.status), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, apperr.FromStatus(tc.status))
		})
	}
}

func TestNormalize_PassesThroughClassifiedErrors(t *testing.T) {
	t.Parallel()

	orig := apperr.New(apperr.KindPermission, "no access")
	got := apperr.Normalize(fmt.Errorf("wrapped: %w", orig))

	assert.Equal(t, apperr.KindPermission, got.Kind)
	assert.Equal(t, "no access", got.Message)
}

func TestNormalize_StatusError(t *testing.T) {
	t.Parallel()

	err := &apperr.StatusError{Status: 404, Body: `{"error":"missing"}`}
	got := apperr.Normalize(err)

	assert.Equal(t, apperr.KindNotFound, got.Kind)
	assert.Equal(t, `{"error":"missing"}`, got.Details)
	assert.NotZero(t, got.Timestamp)
}

func TestNormalize_Timeout(t *testing.T) {
	t.Parallel()

	var netErr net.Error = &net.OpError{Op: "dial", Err: timeoutErr{}}
	got := apperr.Normalize(netErr)
	assert.Equal(t, apperr.KindTimeout, got.Kind)

	got = apperr.Normalize(context.DeadlineExceeded)
	assert.Equal(t, apperr.KindTimeout, got.Kind)
}

func TestNormalize_NetworkFailure(t *testing.T) {
	t.Parallel()

	err := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	got := apperr.Normalize(err)
	assert.Equal(t, apperr.KindNetwork, got.Kind)
}

func TestNormalize_UnknownFallback(t *testing.T) {
	t.Parallel()

	got := apperr.Normalize(errors.New("something odd"))
	assert.Equal(t, apperr.KindUnknown, got.Kind)
	assert.Equal(t, "something odd", got.Message)
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	err := apperr.New(apperr.KindValidation, "bad input")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(fmt.Errorf("ctx: %w", err)))
	assert.Equal(t, apperr.KindUnknown, apperr.KindOf(errors.New("plain")))
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("root cause")
	err := apperr.New(apperr.KindServer, "upstream failed").Wrap(cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "SERVER")
	assert.Contains(t, err.Error(), "upstream failed")
}

// timeoutErr satisfies net.Error with Timeout() == true.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }
