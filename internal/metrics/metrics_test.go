package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetricsExposedOverHTTP(t *testing.T) {
	m, reg := New()
	m.MavError.Add(3)
	m.MasterIn.WithLabelValues("0").Inc()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}

	body := sb.String()
	require.Contains(t, body, "gcproxy_mav_error_total 3")
	require.Contains(t, body, `gcproxy_master_in_total{link="0"} 1`)
}
