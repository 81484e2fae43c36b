package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindSurvivesWrapping(t *testing.T) {
	err := NotFound("plan %d does not exist", 7)
	wrapped := fmt.Errorf("loading plan: %w", err)

	require.Equal(t, KindNotFound, KindOf(wrapped))
	require.True(t, IsNotFound(wrapped))
	require.False(t, IsConflict(wrapped))
}

func TestIntegrityKeepsCause(t *testing.T) {
	cause := errors.New("record not found")
	err := Integrity(cause, "subscription references missing plan")

	require.True(t, IsIntegrity(err))
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "missing plan")
}

func TestKindOfPlainError(t *testing.T) {
	require.Equal(t, Kind(""), KindOf(errors.New("boom")))
	require.Equal(t, Kind(""), KindOf(nil))
}
