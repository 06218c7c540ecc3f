package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultResolver_ResolveOverride(t *testing.T) {
	r := DefaultResolver{}
	page := Named(testPkg, "Page", userType)

	tests := []struct {
		name       string
		existing   TypeRef
		overriding TypeRef
		want       TypeRef
	}{
		{"identical", userType, userType, userType},
		{"subtype wins", animalType, dogType, dogType},
		{"supertype loses", dogType, animalType, dogType},
		{"parameterized refines raw", Named(testPkg, "Page"), page, page},
		{"type variable refines concrete", userType, TypeVar("T"), TypeVar("T")},
		{"concrete does not refine type variable", TypeVar("T"), userType, TypeVar("T")},
		{"unrelated keeps existing", userType, animalType, userType},
		{"transitive subtype", animalType, Named(testPkg, "Puppy").WithSupers(dogType), Named(testPkg, "Puppy")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ResolveOverride(tt.existing, tt.overriding)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestDefaultResolver_Resolve(t *testing.T) {
	r := DefaultResolver{}

	// Store[K, V] <- Cache[V] (embeds Store[string, V]) <- Users (embeds Cache[User])
	store := &InterfaceDesc{Name: "Store", TypeParams: []string{"K", "V"}}
	cache := &InterfaceDesc{
		Name:       "Cache",
		TypeParams: []string{"V"},
		Parents:    []ParentRef{{Desc: store, TypeArgs: []TypeRef{StringType, TypeVar("V")}}},
	}
	users := &InterfaceDesc{
		Name:    "Users",
		Parents: []ParentRef{{Desc: cache, TypeArgs: []TypeRef{userType}}},
	}

	entries := MapOf(TypeVar("K"), SliceOf(TypeVar("V")))
	got := r.Resolve(users, store, entries)
	assert.Equal(t, "map[string][]api.User", got.String())

	assert.True(t, r.Resolve(users, cache, TypeVar("V")).Equal(userType))
	assert.True(t, r.Resolve(users, users, TypeVar("V")).Equal(TypeVar("V")), "no bindings in own scope")

	unrelated := &InterfaceDesc{Name: "Other", TypeParams: []string{"V"}}
	assert.True(t, r.Resolve(users, unrelated, TypeVar("V")).Equal(TypeVar("V")))
}

func TestDefaultResolver_ResolveSubstitutesSupers(t *testing.T) {
	r := DefaultResolver{}
	base := &InterfaceDesc{Name: "Base", TypeParams: []string{"T"}}
	child := &InterfaceDesc{Name: "Child", Parents: []ParentRef{{Desc: base, TypeArgs: []TypeRef{StringType}}}}

	named := Named(testPkg, "Index").WithSupers(MapOf(TypeVar("T"), Basic("int")))
	got := r.Resolve(child, base, named)
	assert.Equal(t, "map[string]int", got.Supers[0].String())
	assert.Equal(t, "map[T]int", named.Supers[0].String(), "input is not mutated")
}
