package authz

import (
	"context"
	"sync"
)

type mockRepository struct {
	rows map[string]*PermissionRow
	mu   sync.RWMutex

	err error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		rows: make(map[string]*PermissionRow),
	}
}

func mockKey(roleID, menuID string) string {
	return roleID + "/" + menuID
}

func (r *mockRepository) put(row *PermissionRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[mockKey(row.RoleID, row.MenuID)] = row
}

func (r *mockRepository) remove(roleID, menuID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, mockKey(roleID, menuID))
}

func (r *mockRepository) failWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *mockRepository) FindByRoleAndMenu(_ context.Context, roleID, menuID string) (*PermissionRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.err != nil {
		return nil, r.err
	}

	row, exists := r.rows[mockKey(roleID, menuID)]
	if !exists {
		return nil, ErrNoPermissionRecord
	}

	clone := *row
	return &clone, nil
}
