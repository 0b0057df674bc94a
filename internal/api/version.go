package api

import (
	"encoding/json"
	"net/http"
	"runtime"
)

type versionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// VersionHandler serves build metadata set through ldflags. Empty values
// fall back to "dev" for the version and "unknown" for the rest.
func VersionHandler(version, gitCommit, buildDate string) http.Handler {
	body := versionResponse{
		Version:   fallback(version, "dev"),
		GitCommit: fallback(gitCommit, "unknown"),
		BuildDate: fallback(buildDate, "unknown"),
		GoVersion: runtime.Version(),
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(body)
	})
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
