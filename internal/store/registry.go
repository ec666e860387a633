// Package store provee el registry de adaptadores de almacenamiento.
//
// Cada adapter se registra en init() y se selecciona por nombre en la config
// (storage.driver). Importar store/all habilita todos los drivers.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dropDatabas3/stockauth/internal/domain/repository"
)

// Adapter crea conexiones a un almacenamiento.
type Adapter interface {
	// Name retorna el nombre del adapter ("memory", "postgres").
	Name() string

	// Connect establece conexión con el almacenamiento.
	Connect(ctx context.Context, cfg AdapterConfig) (Connection, error)
}

// Connection es una conexión activa que expone los repositorios del core.
type Connection interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error

	Users() repository.UserRepository
	RefreshTokens() repository.RefreshTokenRepository
	OTPs() repository.OTPRepository
}

// Migrator la implementan las conexiones que pueden aplicar migraciones.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// AdapterConfig configuración para conectar a un almacenamiento.
type AdapterConfig struct {
	// Name del adapter: "memory", "postgres"
	Name string

	// DSN connection string (para DBs)
	DSN string

	// Pool settings (para DBs)
	MaxConns int32
	MinConns int32
}

// ─── Registry Global ───

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter en el registry global.
// Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("adapter: %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres registrados (ordenados).
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open abre una conexión usando el adapter de cfg.Name.
func Open(ctx context.Context, cfg AdapterConfig) (Connection, error) {
	a, ok := GetAdapter(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("adapter: %q not registered (available: %v)", cfg.Name, ListAdapters())
	}
	return a.Connect(ctx, cfg)
}
