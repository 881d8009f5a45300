package engine

import "fmt"

// DefaultBackend builds DefaultManagers from YAML templates.
type DefaultBackend struct{}

// NewDefaultBackend creates the in-process backend.
func NewDefaultBackend() *DefaultBackend {
	return &DefaultBackend{}
}

// NewManager parses data and returns a manager, started when startEagerly
// is set.
func (b *DefaultBackend) NewManager(data []byte, startEagerly bool) (Manager, error) {
	tpl, err := ParseTemplate(data)
	if err != nil {
		return nil, err
	}

	m := NewManager(tpl)
	if startEagerly {
		if err := m.Start(); err != nil {
			return nil, fmt.Errorf("failed to start manager %s: %w", tpl.Global.ManagerName, err)
		}
	}
	return m, nil
}
