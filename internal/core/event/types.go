package event

import "github.com/l1jgo/framecore/internal/core/ecs"

// Scene lifecycle events, emitted by the engine as the stack reconciles.

type SceneBegan struct {
	Name   string
	Handle ecs.Handle
}

type ScenePaused struct {
	Name   string
	Handle ecs.Handle
}

type SceneResumed struct {
	Name   string
	Handle ecs.Handle
}

type SceneEnded struct {
	Name   string
	Handle ecs.Handle
}

// ScriptReloaded is emitted after a script file was loaded again.
type ScriptReloaded struct {
	Path string
	Err  error
}
