// Package engine is the low-level cache engine the factory builds on.
//
// It exposes the collaborator contracts the factory needs (Backend, Manager,
// Cache) together with an in-process implementation:
//
//   - templates are YAML documents with a "global" section describing the
//     manager (name, cluster, transport, JMX naming) and a "default" section
//     describing the baseline cache configuration
//   - DefaultBackend parses a template into an unstarted DefaultManager
//   - a DefaultManager owns named caches; each one is a Store backed by
//     github.com/patrickmn/go-cache
//
// Usage:
//
//	backend := engine.NewDefaultBackend()
//	manager, err := backend.NewManager(templateBytes, false)
//	if err := manager.Start(); err != nil { ... }
//	manager.DefineConfig("users", cfg)
//	c, err := manager.GetCache("users")
//	c.Put("k", "v")
package engine
