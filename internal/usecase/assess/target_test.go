package assess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kr1s57/linkshield/internal/entity"
)

func TestParseURLTarget(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantErr    string
		wantDomain string
		wantIP     string
	}{
		{
			name:       "plain https URL",
			input:      "https://example.com/path?q=1",
			wantDomain: "example.com",
		},
		{
			name:       "host is lowercased",
			input:      "https://EXAMPLE.Com/Path",
			wantDomain: "example.com",
		},
		{
			name:       "ip literal host",
			input:      "http://203.0.113.9/login",
			wantDomain: "203.0.113.9",
			wantIP:     "203.0.113.9",
		},
		{
			name:       "port is stripped from domain",
			input:      "https://example.com:8443/",
			wantDomain: "example.com",
		},
		{
			name:    "empty input",
			input:   "   ",
			wantErr: "empty URL",
		},
		{
			name:    "relative URL",
			input:   "example.com/path",
			wantErr: "absolute",
		},
		{
			name:    "unsupported scheme",
			input:   "ftp://example.com/file",
			wantErr: "http or https",
		},
		{
			name:    "scheme only",
			input:   "https://",
			wantErr: "no host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := ParseURLTarget(tt.input)

			if tt.wantErr != "" {
				require.Error(t, err)
				var invalid *entity.InvalidTargetError
				require.ErrorAs(t, err, &invalid)
				assert.Contains(t, invalid.Reason, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, entity.TargetURL, target.Kind)
			assert.Equal(t, tt.wantDomain, target.Domain)
			assert.Equal(t, tt.wantIP, target.IP)
		})
	}
}

func TestParseIPTarget(t *testing.T) {
	target, err := ParseIPTarget(" 198.51.100.4 ")
	require.NoError(t, err)
	assert.Equal(t, entity.TargetIP, target.Kind)
	assert.Equal(t, "198.51.100.4", target.IP)

	target, err = ParseIPTarget("2001:db8::1")
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1", target.IP)

	for _, bad := range []string{"", "example.com", "999.1.1.1", "1.2.3"} {
		_, err := ParseIPTarget(bad)
		var invalid *entity.InvalidTargetError
		require.ErrorAs(t, err, &invalid, "input %q", bad)
	}
}
