package scene

import (
	"time"

	"go.uber.org/zap"
)

// Context is one execution frame of reference on the Stack. Exactly one
// context, the top of the stack, is current between reconciliations.
type Context interface {
	Begin(host Host)
	Pause()
	Resume()
	Update()
	Produce()
	End()
}

// Host is what a context sees of the engine running it.
type Host interface {
	World() *World
	Stack() *Stack
	// Delta is the simulated duration of the step being run.
	Delta() time.Duration
	// Elapsed is the total simulated time so far.
	Elapsed() time.Duration
	Renderer() Renderer
	Logger() *zap.Logger
}

// DrawCommand is one submission to the graphics backend.
type DrawCommand struct {
	Layer  int
	Sprite string
	X, Y   float64
}

// Renderer is the graphics backend. The core only submits and presents;
// what happens to the pixels is not its business.
type Renderer interface {
	Submit(cmd DrawCommand)
	Present()
}

// Camera offsets every submission of a scene that owns its camera.
type Camera struct {
	X, Y float64
}

type cameraRenderer struct {
	Renderer
	cam *Camera
}

func (r cameraRenderer) Submit(cmd DrawCommand) {
	cmd.X -= r.cam.X
	cmd.Y -= r.cam.Y
	r.Renderer.Submit(cmd)
}
