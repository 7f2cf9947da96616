package scheduler

import (
	"github.com/diamondbo/rustgine"
	"github.com/sirupsen/logrus"
)

// System is one unit of per-frame logic. Access must return the same
// declaration for the lifetime of a compiled plan.
type System interface {
	Name() string
	Access() Access
	Run(ctx *Context) error
}

// Context is what a running system gets to touch. World and Resources are
// shared with the other systems of the stage; Commands belongs to this system
// alone.
type Context struct {
	World     *rustgine.World
	Resources *rustgine.Resources
	Commands  *rustgine.Commands
	Frame     uint64
	Stage     int
	Log       logrus.FieldLogger
}

type funcSystem struct {
	name   string
	access Access
	run    func(ctx *Context) error
}

// NewSystem adapts a function into a System.
func NewSystem(name string, access Access, run func(ctx *Context) error) System {
	return &funcSystem{name: name, access: access, run: run}
}

func (s *funcSystem) Name() string {
	return s.name
}

func (s *funcSystem) Access() Access {
	return s.access
}

func (s *funcSystem) Run(ctx *Context) error {
	return s.run(ctx)
}
