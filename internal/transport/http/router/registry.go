package router

import (
	"sort"

	"github.com/gin-gonic/gin"
)

// APIModule mounts its routes under /api/v1. pub is unauthenticated; authed
// runs RequireIdentity first.
type APIModule interface {
	MountAPI(pub, authed *gin.RouterGroup)
}

// Modules may implement prioritizer to control mount order (lower first).
// The default is 100.
type prioritizer interface{ Priority() int }

// MountAll mounts mods in priority order; ties keep their given order.
func MountAll(pub, authed *gin.RouterGroup, mods ...APIModule) {
	mods = append([]APIModule(nil), mods...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.MountAPI(pub, authed)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
