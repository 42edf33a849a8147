package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHighestRankWithoutRoles(t *testing.T) {
	user := &User{ID: 1}
	require.Equal(t, RankNone, user.HighestRank())
}

func TestHighestRankAnonymous(t *testing.T) {
	var anonymous *User
	require.Equal(t, RankNone, anonymous.HighestRank())
}

func TestHighestRankPicksMaximum(t *testing.T) {
	user := &User{ID: 1, Roles: []Role{
		{Name: RoleUser, Rank: RankUser},
		{Name: RoleAdmin, Rank: RankAdmin},
		{Name: RoleEditor, Rank: RankEditor},
	}}
	require.Equal(t, RankAdmin, user.HighestRank())

	// Adding a higher-rank role raises the result, never lowers it.
	user.Roles = append(user.Roles, Role{Name: RoleSuperAdmin, Rank: RankSuperAdmin})
	require.Equal(t, RankSuperAdmin, user.HighestRank())

	// Adding a lower-rank role preserves it.
	user.Roles = append(user.Roles, Role{Name: RoleUser, Rank: RankUser})
	require.Equal(t, RankSuperAdmin, user.HighestRank())
}

func TestPublisherAndEditorArePeers(t *testing.T) {
	require.Equal(t, RankPublisher, RankEditor)
}
