package mailroom

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, ErrInternal, ErrorCode(errors.New("boom")))
	assert.Equal(t, ErrNotFound, ErrorCode(Errorf(ErrNotFound, "subscriber not found")))
	assert.Equal(t, ErrInvalid, ErrorCode(pkgerrors.Wrap(Errorf(ErrInvalid, "bad"), "subscribe")))
	assert.Equal(t, ErrConflict, ErrorCode(&Error{Op: "op", Err: Errorf(ErrConflict, "dup")}))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "", ErrorMessage(nil))
	assert.Equal(t, "An internal error has occurred.", ErrorMessage(errors.New("boom")))
	assert.Equal(t, "Invalid email address", ErrorMessage(Errorf(ErrInvalid, "Invalid email address")))
	assert.Equal(t, "dup", ErrorMessage(&Error{Op: "op", Err: Errorf(ErrConflict, "dup")}))
}

func TestError_Error(t *testing.T) {
	assert.Equal(t, "<invalid> bad input", Errorf(ErrInvalid, "bad input").Error())

	cause := errors.New("database is locked")
	err := &Error{Code: ErrInternal, Op: "sqlite.Upsert", Err: cause}
	assert.Equal(t, "sqlite.Upsert: database is locked", err.Error())
	assert.True(t, errors.Is(err, cause))
}
