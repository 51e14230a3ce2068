package repository

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	require.NoError(t, translateError(nil))
	require.Equal(t, ErrNotFound, translateError(gorm.ErrRecordNotFound))
	require.Equal(t, ErrNotFound, translateError(errors.Wrap(gorm.ErrRecordNotFound, "first")))
	require.True(t, errors.Is(translateError(gorm.ErrDuplicatedKey), ErrDuplicateKey))
	require.True(t, errors.Is(translateError(gorm.ErrForeignKeyViolated), ErrForeignKey))

	other := errors.New("connection reset")
	require.Equal(t, other, translateError(other))
}
