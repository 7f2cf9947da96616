package rustgine

import (
	"fmt"
)

type CommandKind int

const (
	CommandCreate CommandKind = iota
	CommandDestroy
	CommandAddComponent
	CommandRemoveComponent
)

func (k CommandKind) String() string {
	switch k {
	case CommandCreate:
		return "create"
	case CommandDestroy:
		return "destroy"
	case CommandAddComponent:
		return "add_component"
	case CommandRemoveComponent:
		return "remove_component"
	default:
		return "unknown"
	}
}

// Command is one buffered structural mutation. Seq is its position in the
// buffer it was issued to.
type Command struct {
	Kind      CommandKind
	Seq       int
	Entity    Entity
	Values    []Value
	Component Component
}

// Commands is an append-only buffer of structural mutations. Each running
// system gets its own buffer, so issuing commands needs no synchronisation;
// the scheduler flushes buffers between stages in a fixed order.
type Commands struct {
	owner string
	cmds  []Command
}

// NewCommands returns an empty buffer labelled with the name of the system
// that fills it.
func NewCommands(owner string) *Commands {
	return &Commands{owner: owner}
}

func (c *Commands) Owner() string {
	return c.owner
}

func (c *Commands) push(cmd Command) {
	cmd.Seq = len(c.cmds)
	c.cmds = append(c.cmds, cmd)
}

// CreateEntity queues the creation of an entity holding values.
func (c *Commands) CreateEntity(values ...Value) {
	c.push(Command{Kind: CommandCreate, Values: append([]Value(nil), values...)})
}

// DestroyEntity queues the destruction of e.
func (c *Commands) DestroyEntity(e Entity) {
	c.push(Command{Kind: CommandDestroy, Entity: e})
}

// AddComponent queues attaching v to e.
func (c *Commands) AddComponent(e Entity, v Value) {
	c.push(Command{Kind: CommandAddComponent, Entity: e, Values: []Value{v}})
}

// RemoveComponent queues detaching comp from e.
func (c *Commands) RemoveComponent(e Entity, comp Component) {
	c.push(Command{Kind: CommandRemoveComponent, Entity: e, Component: comp})
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.cmds)
}

// Pending returns a copy of the queued commands in submission order.
func (c *Commands) Pending() []Command {
	return append([]Command(nil), c.cmds...)
}

// Reset drops every queued command.
func (c *Commands) Reset() {
	clear(c.cmds)
	c.cmds = c.cmds[:0]
}

// CommandError reports a buffered command that could not be applied.
type CommandError struct {
	Owner   string
	Command Command
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s command #%d from %s: %v", e.Command.Kind, e.Command.Seq, e.Owner, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Flush applies the queued commands to w in submission order, each against
// the World as left by the previous one, then clears the buffer. A failing
// command does not stop the ones after it; the failures are returned. Flush
// fails every command while w is locked.
func (c *Commands) Flush(w *World) (created []Entity, errs []error) {
	for _, cmd := range c.cmds {
		var err error
		switch cmd.Kind {
		case CommandCreate:
			var e Entity
			e, err = w.CreateEntity(cmd.Values...)
			if err == nil {
				created = append(created, e)
			}
		case CommandDestroy:
			err = w.DestroyEntity(cmd.Entity)
		case CommandAddComponent:
			err = w.AddComponent(cmd.Entity, cmd.Values[0])
		case CommandRemoveComponent:
			err = w.RemoveComponent(cmd.Entity, cmd.Component)
		default:
			err = fmt.Errorf("unknown command kind %d", cmd.Kind)
		}
		if err != nil {
			errs = append(errs, &CommandError{Owner: c.owner, Command: cmd, Err: err})
		}
	}
	c.Reset()
	return created, errs
}
