package deferqueue

import (
	"fmt"

	"github.com/gridmirror/gridmirror/engine/common"
)

// ActionKind tags what a deferred action replays; the pipeline that submits
// the action owns the meaning of each kind and of the payload slots
type ActionKind int

// Action is one deferred notification: the target region, the kind tag and up
// to four opaque payload slots
type Action struct {
	Handle common.RegionHandle
	Kind   ActionKind
	Args   [4]interface{}
}

func (a Action) String() string {
	return fmt.Sprintf("Action<%d|%s>", int(a.Kind), a.Handle)
}
