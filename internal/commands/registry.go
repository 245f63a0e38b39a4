package commands

// Registry maps entry command text to its command, plus a secondary index
// by the command type stored in sessions. Both maps are built once at
// startup and never mutated afterwards, so concurrent reads need no lock.
type Registry struct {
	byName map[string]Command
	byKind map[string]Command
}

// BuildRegistry wires the full command set. Adding a command here is the
// single registration point; the router and the menu both read this.
func BuildRegistry(deps Deps) *Registry {
	r := NewRegistry()

	r.Register(NewIncome(deps))
	r.Register(NewExpense(deps))
	r.Register(NewCreditNote(deps))
	r.Register(NewCancel(deps.Sessions, deps.Transport))
	r.Register(NewSweep(deps.Sessions, deps.Transport))
	r.Register(NewHelp(deps.Transport, r.All))

	return r
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Command),
		byKind: make(map[string]Command),
	}
}

// Register indexes a command by name and, when it owns sessions, by kind.
// Registration happens during startup only.
func (r *Registry) Register(cmd Command) {
	r.byName[cmd.Name()] = cmd
	if kind := cmd.Kind(); kind != "" {
		r.byKind[kind] = cmd
	}
}

// ByName returns the command registered under an entry text.
func (r *Registry) ByName(name string) (Command, bool) {
	cmd, ok := r.byName[name]
	return cmd, ok
}

// ByKind returns the command owning sessions of a command type.
func (r *Registry) ByKind(kind string) (Command, bool) {
	cmd, ok := r.byKind[kind]
	return cmd, ok
}

// All returns the name-indexed command map.
func (r *Registry) All() map[string]Command {
	return r.byName
}
