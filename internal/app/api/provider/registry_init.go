package provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Settings carries what a provider needs to reach its service.
type Settings struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds one request; zero means no client-side limit
	Timeout time.Duration
}

// ProviderCreator is a function that creates a provider from configuration
type ProviderCreator func(settings Settings) (Provider, error)

// ErrNotRegistered is returned for a provider type nothing registered.
var ErrNotRegistered = errors.New("provider type not registered")

// providerRegistry stores provider creation functions
var (
	providerRegistry = make(map[string]ProviderCreator)
	registryMutex    sync.RWMutex
)

// RegisterProvider registers a provider creator function
func RegisterProvider(providerType string, creator ProviderCreator) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	providerRegistry[providerType] = creator
}

// GetProviderCreator returns the creator function for a provider type
func GetProviderCreator(providerType string) (ProviderCreator, error) {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	creator, ok := providerRegistry[providerType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, providerType)
	}
	return creator, nil
}

// CreateProvider builds and validates the provider registered as providerType.
func CreateProvider(providerType string, settings Settings) (Provider, error) {
	creator, err := GetProviderCreator(providerType)
	if err != nil {
		return nil, err
	}
	p, err := creator(settings)
	if err != nil {
		return nil, err
	}
	if err := p.ValidateConfiguration(); err != nil {
		return nil, fmt.Errorf("%s: %w", providerType, err)
	}
	return p, nil
}

// ListRegisteredProviders returns all registered provider types, sorted
func ListRegisteredProviders() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	var providers []string
	for providerType := range providerRegistry {
		providers = append(providers, providerType)
	}
	sort.Strings(providers)
	return providers
}
