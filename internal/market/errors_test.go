package market

import (
	"errors"
	"fmt"
	"testing"

	"fleamarket.gg/internal/protocol"
)

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind error
		code string
	}{
		{Validation("no items"), ErrValidation, protocol.ErrBadRequest},
		{NotFound("offer %s", "x"), ErrNotFound, protocol.ErrInvalidTarget},
		{Payment("short"), ErrPayment, protocol.ErrNoResource},
		{Internal("bad"), ErrInternal, protocol.ErrInternal},
	}
	for _, c := range cases {
		wrapped := fmt.Errorf("op: %w", c.err)
		if !errors.Is(wrapped, c.kind) {
			t.Fatalf("%v: kind lost through wrapping", c.err)
		}
		if got := CodeOf(wrapped); got != c.code {
			t.Fatalf("%v: code=%s want %s", c.err, got, c.code)
		}
		if !protocol.IsKnownCode(CodeOf(wrapped)) {
			t.Fatalf("unknown code %s", CodeOf(wrapped))
		}
	}
	if got := MessageOf(NotFound("offer %s", "x")); got != "offer x" {
		t.Fatalf("message=%q", got)
	}
	if got := CodeOf(errors.New("boom")); got != protocol.ErrInternal {
		t.Fatalf("plain error code=%s", got)
	}
}
