package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate())
}

func TestValidateRejectsBrokenCatalogs(t *testing.T) {
	client := MustLookup(Client)
	order := MustLookup(Order)

	tests := []struct {
		name string
		list []*Entity
		want string
	}{
		{
			name: "child before parent",
			list: []*Entity{order, client},
			want: `references "client" which is not declared before it`,
		},
		{
			name: "key field missing",
			list: []*Entity{client, {
				Name:        "invoice",
				PrimaryKey:  "invoice_id",
				ForeignKeys: []ForeignKey{{Field: "client_id", References: Client}},
			}},
			want: "foreign key field client_id is not a column",
		},
		{
			name: "include without key",
			list: []*Entity{{Name: "invoice", PrimaryKey: "invoice_id", Includes: []string{Client}}},
			want: `include "client" has no foreign key`,
		},
		{
			name: "primary key as field",
			list: []*Entity{{Name: "invoice", PrimaryKey: "invoice_id", Fields: []Field{{Name: "invoice_id", Type: TypeInt}}}},
			want: "primary key invoice_id declared as a field",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, validate(tt.list), tt.want)
		})
	}
}

func TestList_Order(t *testing.T) {
	assert.Equal(t, []string{Client, Driver, Vehicle, Order, TripDetails, TripLog}, Names())

	list := List()
	list[0] = nil
	assert.NotNil(t, List()[0], "List must return a copy")
}

func TestLookup(t *testing.T) {
	t.Run("known", func(t *testing.T) {
		e, err := Lookup("order")
		require.NoError(t, err)
		assert.Equal(t, "order_id", e.PrimaryKey)
		assert.Equal(t, []string{Client, Driver, Vehicle}, e.Parents())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Lookup("invoice")
		require.ErrorIs(t, err, ErrUnknownEntity)
		assert.Contains(t, err.Error(), "invoice")
	})
}

func TestEntity_Columns(t *testing.T) {
	e := MustLookup(Client)
	assert.Equal(t, []string{"client_id", "client_type", "name_", "contact_person", "phone", "email"}, e.Columns())
}

func TestEntity_ForeignKeyTo(t *testing.T) {
	e := MustLookup(TripLog)

	fk, ok := e.ForeignKeyTo(TripDetails)
	require.True(t, ok)
	assert.Equal(t, "trip_id", fk.Field)

	_, ok = e.ForeignKeyTo(Client)
	assert.False(t, ok)
}

func TestEnums(t *testing.T) {
	f, ok := MustLookup(Vehicle).Field("status")
	require.True(t, ok)
	assert.Equal(t, []string{"available", "busy", "maintenance"}, f.Enum)

	f, ok = MustLookup(TripDetails).Field("actual_trip_status")
	require.True(t, ok)
	assert.Equal(t, []string{"completed", "delayed", "ongoing"}, f.Enum)
}

func TestUniqueFields(t *testing.T) {
	cases := map[string]string{
		Client:      "email",
		Driver:      "license_number",
		Vehicle:     "registration_number",
		TripDetails: "order_id",
	}
	for entity, field := range cases {
		f, ok := MustLookup(entity).Field(field)
		require.True(t, ok, "%s.%s", entity, field)
		assert.True(t, f.Unique, "%s.%s", entity, field)
	}
}
