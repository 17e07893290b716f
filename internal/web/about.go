package web

import (
	"net/http"
	"runtime"
	"runtime/debug"
	"time"
)

const serviceName = "luftraum"

// VersionResponse describes the running binary.
type VersionResponse struct {
	Service   string `json:"service"`
	NowUTC    string `json:"now_utc"`
	GoVersion string `json:"go_version"`
	Module    string `json:"module,omitempty"`
	Version   string `json:"version,omitempty"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	BuiltAt   string `json:"built_at,omitempty"`
}

func buildVersion(now time.Time) VersionResponse {
	v := VersionResponse{
		Service:   serviceName,
		NowUTC:    now.UTC().Format(time.RFC3339Nano),
		GoVersion: runtime.Version(),
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return v
	}
	v.Module = bi.Main.Path
	v.Version = bi.Main.Version
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			v.Revision = s.Value
		case "vcs.modified":
			v.Modified = s.Value == "true"
		case "vcs.time":
			v.BuiltAt = s.Value
		}
	}
	return v
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	writeJSON(w, buildVersion(time.Now()))
}
