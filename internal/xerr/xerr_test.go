package xerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindClassification(t *testing.T) {
	cause := errors.New("eof")
	e := Transport(cause, "link %d recv failed", 2)

	require.True(t, e.Is(KindTransport))
	require.False(t, e.Is(KindParse))
	require.Equal(t, cause, e.Unwrap())
	require.Contains(t, e.Error(), "link 2 recv failed")
}

func TestTimeoutHasNoCause(t *testing.T) {
	e := Timeout("param set %q", "FOO")
	require.True(t, e.Is(KindProtocolTimeout))
	require.Nil(t, e.Unwrap())
}
