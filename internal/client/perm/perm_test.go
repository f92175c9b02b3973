package perm

import (
	"testing"

	"github.com/mfadhilr/wikiclient/internal/models"
)

func TestHas(t *testing.T) {
	tests := []struct {
		name       string
		identity   *models.Identity
		capability string
		want       bool
	}{
		{
			name:       "nil identity",
			identity:   nil,
			capability: CreateContent,
			want:       false,
		},
		{
			name:       "nil permission set",
			identity:   &models.Identity{Role: "Guest"},
			capability: CreateContent,
			want:       false,
		},
		{
			name:       "empty permission set",
			identity:   &models.Identity{Permissions: []string{}},
			capability: CreateContent,
			want:       false,
		},
		{
			name:       "capability missing",
			identity:   &models.Identity{Permissions: []string{ReadContent, EditContent}},
			capability: ApproveContent,
			want:       false,
		},
		{
			name:       "capability present",
			identity:   &models.Identity{Permissions: []string{ReadContent, ApproveContent}},
			capability: ApproveContent,
			want:       true,
		},
		{
			name:       "user administration granted",
			identity:   &models.Identity{Permissions: []string{CreateUser, EditUser, DeleteUser}},
			capability: DeleteUser,
			want:       true,
		},
		{
			name:       "user administration denied to editors",
			identity:   &models.Identity{Permissions: []string{ReadContent, CreateContent, EditContent}},
			capability: CreateUser,
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Has(tt.identity, tt.capability); got != tt.want {
				t.Errorf("Has() = %v, want %v", got, tt.want)
			}
		})
	}
}
