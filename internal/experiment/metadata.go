// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package experiment

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

// vcsInfo carries the version control metadata probed for a run.
type vcsInfo struct {
	Commit string
	Branch string
}

// projectVersion returns the module version recorded in the build info, when
// the binary was built from a tagged module.
func projectVersion() (string, bool) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}

	version := buildInfo.Main.Version
	if version == "" || version == "(devel)" {
		return "", false
	}
	return version, true
}

// vcsMetadata probes the build info and the local git checkout for the commit
// and branch of the running code.
func vcsMetadata() (vcsInfo, bool) {
	metadata := vcsInfo{}
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			if setting.Key == "vcs.revision" {
				metadata.Commit = setting.Value
			}
		}
	}

	if head, found := readGitHead(); found {
		metadata.Branch = head.Branch
		if metadata.Commit == "" {
			metadata.Commit = head.Commit
		}
	}

	return metadata, metadata.Commit != "" || metadata.Branch != ""
}

// readGitHead walks up from the working directory looking for a .git
// directory and parses its HEAD reference.
func readGitHead() (vcsInfo, bool) {
	directory, err := os.Getwd()
	if err != nil {
		return vcsInfo{}, false
	}

	for {
		gitDir := filepath.Join(directory, ".git")
		if stat, err := os.Stat(gitDir); err == nil && stat.IsDir() {
			return parseGitHead(gitDir)
		}

		parent := filepath.Dir(directory)
		if parent == directory {
			return vcsInfo{}, false
		}
		directory = parent
	}
}

func parseGitHead(gitDir string) (vcsInfo, bool) {
	content, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return vcsInfo{}, false
	}

	head := strings.TrimSpace(string(content))
	reference, isReference := strings.CutPrefix(head, "ref: ")
	if !isReference {
		// detached HEAD, the file holds the commit itself
		return vcsInfo{Commit: head}, head != ""
	}

	metadata := vcsInfo{
		Branch: strings.TrimPrefix(reference, "refs/heads/"),
	}
	if commit, err := os.ReadFile(filepath.Join(gitDir, filepath.FromSlash(reference))); err == nil {
		metadata.Commit = strings.TrimSpace(string(commit))
	}

	return metadata, true
}
