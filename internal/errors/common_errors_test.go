package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewAppValidationError("question too long"),
			want: "[VALIDATION] question too long",
		},
		{
			name: "with cause",
			err:  NewConfigError("no week columns", fmt.Errorf("header has 4 columns")),
			want: "[CONFIG] no week columns: header has 4 columns",
		},
		{
			name: "not found helper",
			err:  NewNotFoundError("transformed data"),
			want: "[NOT_FOUND] transformed data not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewStorageError("failed to read input", fs.ErrNotExist)

	assert.ErrorIs(t, err, fs.ErrNotExist)

	wrapped := fmt.Errorf("transform: %w", err)
	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeStorage, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewParsingError("bad header", nil).
		WithContext("sheet", "Sheet1").
		WithContext("row", 1)

	assert.Equal(t, "Sheet1", err.Context["sheet"])
	assert.Equal(t, 1, err.Context["row"])

	bare := &AppError{Type: ErrTypeData}
	bare.WithContext("week", 10)
	assert.Equal(t, 10, bare.Context["week"])
}

func TestConstructorsSetType(t *testing.T) {
	tests := []struct {
		err  *AppError
		want ErrorType
	}{
		{NewConfigError("c", nil), ErrTypeConfig},
		{NewParsingError("p", nil), ErrTypeParsing},
		{NewStorageError("s", nil), ErrTypeStorage},
		{NewAppValidationError("v"), ErrTypeValidation},
		{NewNotFoundError("n"), ErrTypeNotFound},
		{NewExternalError("e", nil), ErrTypeExternal},
		{NewDataError("d", nil), ErrTypeData},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Type)
			assert.NotNil(t, tt.err.Context)
		})
	}
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("startup: %w", NewConfigError("placeholder key", nil))

	assert.True(t, IsType(err, ErrTypeConfig))
	assert.False(t, IsType(err, ErrTypeData))
	assert.False(t, IsType(errors.New("plain"), ErrTypeConfig))
}
