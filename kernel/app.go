package kernel

import (
	"git.sr.ht/~aondrejcak/wellness-api/catalog"
	"git.sr.ht/~aondrejcak/wellness-api/store"
)

// AppRuntime is the explicitly constructed application context handed to
// every handler. Nothing in the server reads process globals for it.
type AppRuntime struct {
	Config     *Config
	Store      store.Store
	Catalog    *catalog.Catalog
	Diagnostic *AppDiagnostic
	Passwords  *PasswordHasher
}

func NewAppRuntime(c *Config, st store.Store, cat *catalog.Catalog) *AppRuntime {
	return &AppRuntime{
		Config:     c,
		Store:      st,
		Catalog:    cat,
		Diagnostic: NewDiagnostic(c.ServiceName),
		Passwords:  NewPasswordHasher(),
	}
}
