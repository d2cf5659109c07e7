package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Invalid credentials", Message(fmt.Errorf("%w: Invalid credentials", ErrUnauthorized)))
	require.Equal(t, "not found", Message(ErrNotFound))
	require.Equal(t, "load user: boom", Message(fmt.Errorf("load user: %w", errors.New("boom"))))
}
