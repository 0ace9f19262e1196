// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"runtime/debug"
	"slices"
	"strings"
)

// BuildVersion is the latest tagged release of transmgr.
const BuildVersion string = "v0.4.0"

const shortRevisionLength = 8

type buildInfo struct {
	VcsRevision string
	VcsTime     string
	VcsModified bool
}

func (b *buildInfo) Revision() string {
	if b.VcsRevision == "" {
		return "unknown"
	}

	revision := b.VcsRevision
	if len(revision) > shortRevisionLength {
		revision = revision[:shortRevisionLength]
	}

	s := strings.Split(b.VcsTime, "T")[0] + "-" + revision
	if b.VcsModified {
		s += "+dirty"
	}

	return s
}

func (b *buildInfo) load() {
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		b.VcsRevision = getBuildSetting(buildInfo.Settings, "vcs.revision")
		b.VcsTime = getBuildSetting(buildInfo.Settings, "vcs.time")
		b.VcsModified = getBuildSetting(buildInfo.Settings, "vcs.modified") == "true"
	}
}

func getBuildSetting(settings []debug.BuildSetting, key string) string {
	i := slices.IndexFunc(settings, func(kv debug.BuildSetting) bool { return kv.Key == key })
	if i < 0 {
		return ""
	}

	return settings[i].Value
}
