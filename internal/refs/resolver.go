// Package refs resolves the comma-delimited soft references Nexudus
// embeds in its records. Resolution is lazy and tolerant: entities
// merge in any order, so a reference may point at a row that has not
// arrived yet. Dangling ids resolve to nothing, never to an error.
package refs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
)

// Store is the read surface the resolver needs.
type Store interface {
	GetContract(sourceID int64) (*models.Contract, error)
	GetExtraService(sourceID int64) (*models.ExtraService, error)
	GetProduct(sourceID int64) (*models.Product, error)
	GetProductsBySourceIDs(ids []int64) ([]models.Product, error)
	GetLocation(sourceID int64) (*models.Location, error)
	ListRoomProducts() ([]models.Product, error)
	ListExtraServices() ([]models.ExtraService, error)
}

type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// SplitTokens splits a comma-delimited reference list into trimmed
// tokens, preserving source order and dropping empties.
func SplitTokens(list *string) []string {
	if list == nil {
		return nil
	}

	var tokens []string
	for _, part := range strings.Split(*list, ",") {
		token := strings.TrimSpace(part)
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func splitIDs(list *string) []int64 {
	var ids []int64
	for _, token := range SplitTokens(list) {
		id, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func containsToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}

// ContractProducts resolves a contract's floor plan desk ids into
// products, in the order the contract lists them. Unknown ids are
// dropped. A missing contract resolves to nothing.
func (r *Resolver) ContractProducts(contractID int64) ([]models.Product, error) {
	ct, err := r.store.GetContract(contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract %d: %w", contractID, err)
	}
	if ct == nil {
		return nil, nil
	}

	ids := splitIDs(ct.FloorPlanDeskIDs)
	if len(ids) == 0 {
		return nil, nil
	}
	return r.store.GetProductsBySourceIDs(ids)
}

// ServiceProducts resolves an extra service's resource type names into
// the room products whose resource type matches one of them exactly.
// Matching is exact per token: "Meeting Room" never matches
// "Meeting Room Large".
func (r *Resolver) ServiceProducts(serviceID int64) ([]models.Product, error) {
	svc, err := r.store.GetExtraService(serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load extra service %d: %w", serviceID, err)
	}
	if svc == nil {
		return nil, nil
	}

	tokens := SplitTokens(svc.ResourceTypeNames)
	if len(tokens) == 0 {
		return nil, nil
	}

	rooms, err := r.store.ListRoomProducts()
	if err != nil {
		return nil, fmt.Errorf("failed to load room products: %w", err)
	}

	var matched []models.Product
	for _, p := range rooms {
		if p.ResourceTypeName != nil && containsToken(tokens, *p.ResourceTypeName) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// ProductServices is the reverse direction: the extra services whose
// resource type name list contains the product's resource type.
func (r *Resolver) ProductServices(productID int64) ([]models.ExtraService, error) {
	p, err := r.store.GetProduct(productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", productID, err)
	}
	if p == nil || p.ResourceTypeName == nil {
		return nil, nil
	}

	services, err := r.store.ListExtraServices()
	if err != nil {
		return nil, fmt.Errorf("failed to load extra services: %w", err)
	}

	var matched []models.ExtraService
	for _, svc := range services {
		if containsToken(SplitTokens(svc.ResourceTypeNames), *p.ResourceTypeName) {
			matched = append(matched, svc)
		}
	}
	return matched, nil
}

// ProductLocation resolves a product's owning location, or nil when
// the product has no location reference or the location has not been
// merged yet.
func (r *Resolver) ProductLocation(productID int64) (*models.Location, error) {
	p, err := r.store.GetProduct(productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", productID, err)
	}
	if p == nil || p.LocationSourceID == nil {
		return nil, nil
	}
	return r.store.GetLocation(*p.LocationSourceID)
}
