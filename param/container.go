package param

import (
	"fmt"
	"strings"
)

// Container is a named node in the parameter tree (§3). The root
// container's name is empty; every other container's name is unique among
// its siblings, as is every parameter's name among its sibling parameters.
type Container struct {
	name       string
	parent     *Container
	containers []*Container
	parameters []Parameter
}

// NewRoot constructs an empty root container.
func NewRoot() *Container {
	return &Container{}
}

// Name returns this container's name ("" for the root).
func (c *Container) Name() string { return c.name }

// Parent returns the enclosing container, or nil at the root.
func (c *Container) Parent() *Container { return c.parent }

// Containers returns the child containers in registration order.
func (c *Container) Containers() []*Container { return c.containers }

// Parameters returns the child parameters in registration order.
func (c *Container) Parameters() []Parameter { return c.parameters }

// Child adds and returns a new child container named name. It panics if a
// sibling container already uses that name, since this is a programming
// error at tree-construction time, not a runtime condition to recover from.
func (c *Container) Child(name string) *Container {
	for _, ch := range c.containers {
		if ch.name == name {
			panic(fmt.Sprintf("param: duplicate child container %q under %q", name, c.Path()))
		}
	}
	child := &Container{name: name, parent: c}
	c.containers = append(c.containers, child)
	return child
}

// Add registers p as a child parameter of c. It panics on a duplicate
// sibling name, for the same reason Child does.
func (c *Container) Add(p Parameter) {
	name := p.Meta().Name
	for _, q := range c.parameters {
		if q.Meta().Name == name {
			panic(fmt.Sprintf("param: duplicate parameter %q under %q", name, c.Path()))
		}
	}
	c.parameters = append(c.parameters, p)
}

// Path returns the container's slash-separated path from the root, e.g.
// "/sys/net" (§4.5, §6).
func (c *Container) Path() string {
	if c.parent == nil {
		return ""
	}
	return c.parent.Path() + "/" + c.name
}

// Find resolves a slash-separated path (e.g. "/sys/version") to the
// parameter at that location, walking containers by name.
func (c *Container) Find(path string) (Parameter, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 {
		return nil, false
	}
	cur := c
	for _, part := range parts[:len(parts)-1] {
		next := cur.childContainer(part)
		if next == nil {
			return nil, false
		}
		cur = next
	}
	last := parts[len(parts)-1]
	for _, p := range cur.parameters {
		if p.Meta().Name == last {
			return p, true
		}
	}
	return nil, false
}

func (c *Container) childContainer(name string) *Container {
	for _, ch := range c.containers {
		if ch.name == name {
			return ch
		}
	}
	return nil
}

// Walk visits every parameter in the tree, depth-first, in registration
// order -- the order the schema (§4.5) and the PID table (§3) both use.
func (c *Container) Walk(fn func(path string, p Parameter)) {
	for _, p := range c.parameters {
		fn(c.Path(), p)
	}
	for _, ch := range c.containers {
		ch.Walk(fn)
	}
}
