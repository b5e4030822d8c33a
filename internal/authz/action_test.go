package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		wire    string
		want    Action
		wantErr bool
	}{
		{name: "create", wire: "guardar", want: ActionCreate},
		{name: "edit", wire: "editar", want: ActionEdit},
		{name: "list", wire: "listar", want: ActionList},
		{name: "delete", wire: "eliminar", want: ActionDelete},
		{name: "download", wire: "descargar", want: ActionDownload},
		{name: "unknown", wire: "publicar", wantErr: true},
		{name: "empty", wire: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.wire)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownAction)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wire, got.String())
		})
	}
}

func TestPermissionRow_Allows(t *testing.T) {
	row := &PermissionRow{
		RoleID:   "role-1",
		MenuID:   "menu42",
		Create:   true,
		List:     true,
		Download: false,
	}

	assert.True(t, row.Allows(ActionCreate))
	assert.False(t, row.Allows(ActionEdit))
	assert.True(t, row.Allows(ActionList))
	assert.False(t, row.Allows(ActionDelete))
	assert.False(t, row.Allows(ActionDownload))
	assert.False(t, row.Allows(Action(99)))
}
