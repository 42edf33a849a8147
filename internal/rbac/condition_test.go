package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConditionAlways(t *testing.T) {
	ok, err := EvaluateCondition(nil, nil, CondAlways)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestConditionOwner(t *testing.T) {
	actor := &User{ID: 7}

	ok, err := EvaluateCondition(actor, &draftPost{id: 1, authorID: 7}, CondOwner)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = EvaluateCondition(actor, &draftPost{id: 1, authorID: 8}, CondOwner)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = EvaluateCondition(actor, nil, CondOwner)
	require.NoError(t, err)
	require.False(t, ok)

	// Items without an owner reference never satisfy the condition.
	ok, err = EvaluateCondition(actor, &User{ID: 7}, CondOwner)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConditionSelf(t *testing.T) {
	actor := &User{ID: 7}

	ok, err := EvaluateCondition(actor, &User{ID: 7}, CondSelf)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = EvaluateCondition(actor, &User{ID: 8}, CondSelf)
	require.NoError(t, err)
	require.False(t, ok)

	// Self is identity-typed: owning a non-user item is not selfhood.
	ok, err = EvaluateCondition(actor, &draftPost{id: 7, authorID: 7}, CondSelf)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConditionSuperior(t *testing.T) {
	admin := &User{ID: 1, Roles: []Role{{Name: RoleAdmin, Rank: RankAdmin}}}
	member := &User{ID: 2, Roles: []Role{{Name: RoleUser, Rank: RankUser}}}
	peer := &User{ID: 3, Roles: []Role{{Name: RoleAdmin, Rank: RankAdmin}}}

	ok, err := EvaluateCondition(admin, member, CondSuperior)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = EvaluateCondition(member, admin, CondSuperior)
	require.NoError(t, err)
	require.False(t, ok)

	// Strict comparison: equal ranks are never superior.
	ok, err = EvaluateCondition(admin, peer, CondSuperior)
	require.NoError(t, err)
	require.False(t, ok)

	// Items without a resolvable rank cannot be outranked.
	ok, err = EvaluateCondition(admin, &draftPost{id: 1}, CondSuperior)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConditionSelfOrSuperior(t *testing.T) {
	admin := &User{ID: 1, Roles: []Role{{Name: RoleAdmin, Rank: RankAdmin}}}
	member := &User{ID: 2, Roles: []Role{{Name: RoleUser, Rank: RankUser}}}

	// Self holds, superior does not.
	ok, err := EvaluateCondition(member, member, CondSelfOrSuperior)
	require.NoError(t, err)
	require.True(t, ok)

	// Superior holds, self does not.
	ok, err = EvaluateCondition(admin, member, CondSelfOrSuperior)
	require.NoError(t, err)
	require.True(t, ok)

	// Neither holds.
	ok, err = EvaluateCondition(member, admin, CondSelfOrSuperior)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConditionUnknownIsConfigurationError(t *testing.T) {
	_, err := EvaluateCondition(&User{ID: 1}, nil, Condition("sometimes"))
	require.ErrorIs(t, err, ErrUnknownCondition)
}
