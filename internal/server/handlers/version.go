package handlers

import (
	"net/http"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"

	apperrors "github.com/3leaps/davgallery/internal/errors"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Gofulmen  string `json:"gofulmen_version,omitempty"`
	Crucible  string `json:"crucible_version,omitempty"`
}

// Complete fills the runtime and library versions left empty.
func (v VersionInfo) Complete() VersionInfo {
	if v.GoVersion == "" {
		v.GoVersion = runtime.Version()
	}
	lib := crucible.GetVersion()
	if v.Gofulmen == "" {
		v.Gofulmen = lib.Gofulmen
	}
	if v.Crucible == "" {
		v.Crucible = lib.Crucible
	}
	return v
}

// VersionHandler returns a handler reporting info.
func VersionHandler(info VersionInfo) http.HandlerFunc {
	info = info.Complete()
	return func(w http.ResponseWriter, r *http.Request) {
		apperrors.WriteJSON(w, http.StatusOK, info)
	}
}
