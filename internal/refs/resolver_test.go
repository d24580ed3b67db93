package refs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
)

type fakeStore struct {
	contracts map[int64]*models.Contract
	services  map[int64]*models.ExtraService
	products  map[int64]*models.Product
	locations map[int64]*models.Location
}

func (f *fakeStore) GetContract(id int64) (*models.Contract, error)         { return f.contracts[id], nil }
func (f *fakeStore) GetExtraService(id int64) (*models.ExtraService, error) { return f.services[id], nil }
func (f *fakeStore) GetProduct(id int64) (*models.Product, error)           { return f.products[id], nil }
func (f *fakeStore) GetLocation(id int64) (*models.Location, error)         { return f.locations[id], nil }

func (f *fakeStore) GetProductsBySourceIDs(ids []int64) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListRoomProducts() ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.products {
		if p.ItemType == 4 || p.ItemType == 5 {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListExtraServices() ([]models.ExtraService, error) {
	var out []models.ExtraService
	for _, s := range f.services {
		out = append(out, *s)
	}
	return out, nil
}

func strPtr(s string) *string { return &s }
func i64Ptr(i int64) *int64   { return &i }

func TestSplitTokens(t *testing.T) {
	assert.Nil(t, SplitTokens(nil))
	assert.Equal(t, []string{"a", "b c", "d"}, SplitTokens(strPtr("a, b c ,d")))
	assert.Nil(t, SplitTokens(strPtr(" , ,")))
}

func TestContractProducts(t *testing.T) {
	store := &fakeStore{
		contracts: map[int64]*models.Contract{
			300: {SourceID: 300, FloorPlanDeskIDs: strPtr("202, 999, 201")},
		},
		products: map[int64]*models.Product{
			201: {SourceID: 201, ItemType: 2, Name: "Desk 1"},
			202: {SourceID: 202, ItemType: 2, Name: "Desk 2"},
		},
	}
	r := NewResolver(store)

	// Order follows the contract's list; the dangling 999 vanishes.
	products, err := r.ContractProducts(300)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(202), products[0].SourceID)
	assert.Equal(t, int64(201), products[1].SourceID)
}

func TestContractProductsMissingContract(t *testing.T) {
	r := NewResolver(&fakeStore{contracts: map[int64]*models.Contract{}})

	products, err := r.ContractProducts(999)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestContractProductsNoReferences(t *testing.T) {
	store := &fakeStore{
		contracts: map[int64]*models.Contract{300: {SourceID: 300}},
	}
	products, err := NewResolver(store).ContractProducts(300)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestServiceProductsExactTokenMatch(t *testing.T) {
	store := &fakeStore{
		services: map[int64]*models.ExtraService{
			500: {SourceID: 500, ResourceTypeNames: strPtr("Meeting Room Large,Phone Booth")},
		},
		products: map[int64]*models.Product{
			// "Meeting Room" must not match "Meeting Room Large".
			210: {SourceID: 210, ItemType: 5, ResourceTypeName: strPtr("Meeting Room")},
			211: {SourceID: 211, ItemType: 5, ResourceTypeName: strPtr("Meeting Room Large")},
			212: {SourceID: 212, ItemType: 2, ResourceTypeName: strPtr("Phone Booth")},
		},
	}

	products, err := NewResolver(store).ServiceProducts(500)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(211), products[0].SourceID)
}

func TestProductServices(t *testing.T) {
	store := &fakeStore{
		products: map[int64]*models.Product{
			211: {SourceID: 211, ItemType: 5, ResourceTypeName: strPtr("Meeting Room Large")},
		},
		services: map[int64]*models.ExtraService{
			500: {SourceID: 500, ResourceTypeNames: strPtr("Meeting Room Large,Phone Booth")},
			501: {SourceID: 501, ResourceTypeNames: strPtr("Hot Desk")},
			502: {SourceID: 502},
		},
	}

	services, err := NewResolver(store).ProductServices(211)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, int64(500), services[0].SourceID)
}

func TestProductLocation(t *testing.T) {
	store := &fakeStore{
		products: map[int64]*models.Product{
			211: {SourceID: 211, LocationSourceID: i64Ptr(100)},
			212: {SourceID: 212},
		},
		locations: map[int64]*models.Location{
			100: {SourceID: 100, Name: "Berlin Mitte"},
		},
	}
	r := NewResolver(store)

	loc, err := r.ProductLocation(211)
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "Berlin Mitte", loc.Name)

	loc, err = r.ProductLocation(212)
	require.NoError(t, err)
	assert.Nil(t, loc)
}
