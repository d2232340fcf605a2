package errs

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewError_KnownCode(t *testing.T) {
	customErr := NewError(ErrBilanNotFound)

	require.Equal(t, ErrBilanNotFound, customErr.Code)
	require.Equal(t, http.StatusNotFound, customErr.Status)
	require.NotEmpty(t, customErr.Message)
}

func TestNewError_UnknownCodeFallsBackToUnknown(t *testing.T) {
	customErr := NewError(999999)

	require.Equal(t, ErrUnknown, customErr.Code)
	require.Equal(t, http.StatusInternalServerError, customErr.Status)
}

func TestNewError_ZeroStatusDefaultsToOK(t *testing.T) {
	// Business rejections delivered over the WebSocket carry no HTTP status
	// of their own.
	customErr := NewError(ErrInvalidAddressing)

	require.Equal(t, http.StatusOK, customErr.Status)
}

func TestNewError_FormatsDetailsIntoTemplate(t *testing.T) {
	customErr := NewError(ErrInvalidPassword, 6, 72)

	require.Contains(t, customErr.Message, "6")
	require.Contains(t, customErr.Message, "72")
}

func TestCustomError_ErrorString(t *testing.T) {
	customErr := NewError(ErrMessageNotSaved)

	require.Contains(t, customErr.Error(), "2302")
	require.Contains(t, customErr.Error(), customErr.Message)
}
