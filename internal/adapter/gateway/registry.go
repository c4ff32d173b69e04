package gateway

import (
	"peerpay-settlement/internal/core/domain"
	"peerpay-settlement/internal/core/ports"
	"peerpay-settlement/pkg/apperror"
)

// Registry implements ports.GatewayRegistry over a fixed set of adapters
// registered at startup.
type Registry struct {
	adapters map[domain.PaymentMethod]ports.GatewayAdapter
}

// NewRegistry creates a registry from the given adapters.
func NewRegistry(adapters ...ports.GatewayAdapter) *Registry {
	m := make(map[domain.PaymentMethod]ports.GatewayAdapter, len(adapters))
	for _, a := range adapters {
		m[a.Method()] = a
	}
	return &Registry{adapters: m}
}

// ForMethod resolves the adapter for a payment method.
func (r *Registry) ForMethod(method domain.PaymentMethod) (ports.GatewayAdapter, error) {
	a, ok := r.adapters[method]
	if !ok {
		return nil, apperror.ErrUnknownMethod(string(method))
	}
	return a, nil
}
