package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReason(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("%w: 123456", ErrNotFound), ReasonNotFound},
		{fmt.Errorf("%w: Ana", ErrDuplicateName), ReasonDuplicate},
		{fmt.Errorf("%w: already active", ErrInvalidTransition), ReasonInvalidTransition},
		{fmt.Errorf("start 123456: %w", ErrEmptyPool), ReasonEmptyPool},
		{storageErr("update session", errDiskFull), ReasonStorage},
		{fmt.Errorf("%w: name", ErrInvalidInput), ReasonInvalidRequest},
		{errors.New("boom"), ReasonInternal},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, Reason(tc.err), "error: %v", tc.err)
	}
}
