package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NewValidation(MsgIdentityRequired)))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NewDuplicatePage(2)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(NewAutomation(context.DeadlineExceeded)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestClientMessageHidesCause(t *testing.T) {
	err := NewAutomation(fmt.Errorf("navigate: net::ERR_NAME_NOT_RESOLVED"))

	assert.Equal(t, MsgLoadFailed, ClientMessage(err))
	assert.Contains(t, err.Error(), "ERR_NAME_NOT_RESOLVED")
	assert.Equal(t, MsgLoadFailed, ClientMessage(errors.New("raw")))
}

func TestSentinelMatching(t *testing.T) {
	wrapped := fmt.Errorf("get page: %w", NewDuplicatePage(0))

	assert.True(t, errors.Is(wrapped, ErrPageServed))
	assert.False(t, errors.Is(wrapped, ErrLoadFailed))
	assert.Equal(t, ErrorTypeDuplicatePage, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("x")))
}

func TestUnwrap(t *testing.T) {
	err := NewAutomation(context.Canceled)
	assert.True(t, errors.Is(err, context.Canceled))
}
