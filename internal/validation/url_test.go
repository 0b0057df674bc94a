package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		requireHTTPS bool
		wantErr      string
	}{
		{name: "empty allowed", url: ""},
		{name: "http", url: "http://localhost:8080"},
		{name: "https with path", url: "https://project.supabase.co/storage"},
		{name: "no scheme", url: "portal.school.edu", wantErr: "must include a scheme"},
		{name: "no host", url: "https://", wantErr: "must include a host"},
		{name: "ftp", url: "ftp://files.school.edu", wantErr: "scheme must be http or https"},
		{name: "http in production", url: "http://portal.school.edu", requireHTTPS: true, wantErr: "must use HTTPS"},
		{name: "https in production", url: "https://portal.school.edu", requireHTTPS: true},
		{name: "unparseable", url: "http://[::1", wantErr: "invalid URL format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url, "SERVER_BASE_URL", tt.requireHTTPS)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)

			var urlErr URLError
			require.ErrorAs(t, err, &urlErr)
			require.Equal(t, "SERVER_BASE_URL", urlErr.Field)
		})
	}
}

func TestValidateBaseURL(t *testing.T) {
	require.NoError(t, ValidateBaseURL("https://portal.school.edu", "SERVER_BASE_URL", true))
	require.NoError(t, ValidateBaseURL("https://portal.school.edu/", "SERVER_BASE_URL", true))
	require.NoError(t, ValidateBaseURL("", "SERVER_BASE_URL", true))

	require.ErrorContains(t, ValidateBaseURL("https://portal.school.edu/api", "SERVER_BASE_URL", false), "must not contain a path")
	require.ErrorContains(t, ValidateBaseURL("https://portal.school.edu?x=1", "SERVER_BASE_URL", false), "query parameters")
	require.ErrorContains(t, ValidateBaseURL("https://portal.school.edu#top", "SERVER_BASE_URL", false), "fragment")
	require.ErrorContains(t, ValidateBaseURL("http://portal.school.edu", "SERVER_BASE_URL", true), "HTTPS")
}
