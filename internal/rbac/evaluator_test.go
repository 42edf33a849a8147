package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasPermissionAnonymousAlwaysFails(t *testing.T) {
	eval := seededEvaluator()
	require.False(t, eval.HasPermission(nil, ActionList, ResourceUser))
	require.False(t, eval.HasPermission(nil, ActionCreate, ResourceUser))
	require.False(t, eval.HasPermission(nil, ActionReadDraft, ResourceBlogPost))
}

func TestHasPermissionRequiresUnconditionalGrant(t *testing.T) {
	eval := seededEvaluator()

	holder := &User{ID: 1, Roles: []Role{
		grantRole(RoleAdmin, RankAdmin, Grant{ActionList, ResourceUser, CondAlways}),
	}}
	require.True(t, eval.HasPermission(holder, ActionList, ResourceUser))
	require.False(t, eval.HasPermission(holder, ActionDelete, ResourceUser))

	// A conditional grant is invisible to the type-level gate: there is no
	// item to evaluate the condition against.
	conditional := &User{ID: 2, Roles: []Role{
		grantRole(RoleUser, RankUser, Grant{ActionUpdate, ResourceUser, CondSelf}),
	}}
	require.False(t, eval.HasPermission(conditional, ActionUpdate, ResourceUser))
}

func TestHasObjectPermissionGrantsAreORed(t *testing.T) {
	eval := seededEvaluator()

	// Two grants for the same (action, resource) under different
	// conditions; any one succeeding is sufficient.
	actor := &User{ID: 5, Roles: []Role{
		grantRole(RoleUser, RankUser,
			Grant{ActionDelete, ResourceBlogComment, CondOwner},
			Grant{ActionDelete, ResourceBlogComment, CondSuperior}),
	}}

	own := &draftPost{id: 10, authorID: 5}
	other := &draftPost{id: 11, authorID: 6}

	allowed, err := eval.HasObjectPermission(actor, ActionDelete, ResourceBlogComment, own)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = eval.HasObjectPermission(actor, ActionDelete, ResourceBlogComment, other)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestHasObjectPermissionNilActorOrItem(t *testing.T) {
	eval := seededEvaluator()

	allowed, err := eval.HasObjectPermission(nil, ActionUpdate, ResourceUser, &User{ID: 1})
	require.NoError(t, err)
	require.False(t, allowed)

	actor := &User{ID: 1, Roles: []Role{
		grantRole(RoleUser, RankUser, Grant{ActionUpdate, ResourceUser, CondSelf}),
	}}
	allowed, err = eval.HasObjectPermission(actor, ActionUpdate, ResourceUser, nil)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestReadDraftIsGatedByPublicationStateAlone(t *testing.T) {
	eval := seededEvaluator()

	draft := &draftPost{id: 1, authorID: 9, published: false}
	published := &draftPost{id: 2, authorID: 9, published: true}

	// Independent of roles, including for the anonymous actor.
	for _, actor := range []*User{
		nil,
		{ID: 9, Roles: []Role{grantRole(RoleUser, RankUser)}},
		{ID: 9},
	} {
		allowed, err := eval.HasObjectPermission(actor, ActionReadDraft, ResourceBlogPost, draft)
		require.NoError(t, err)
		require.False(t, allowed)

		allowed, err = eval.HasObjectPermission(actor, ActionReadDraft, ResourceBlogPost, published)
		require.NoError(t, err)
		require.True(t, allowed)
	}
}

func TestHasObjectPermissionPropagatesConditionErrors(t *testing.T) {
	eval := seededEvaluator()
	actor := &User{ID: 1, Roles: []Role{{Name: "broken", Permissions: []Permission{
		{Action: ActionUpdate, Resource: ResourceUser, Condition: Condition("sometimes")},
	}}}}

	_, err := eval.HasObjectPermission(actor, ActionUpdate, ResourceUser, &User{ID: 2})
	require.ErrorIs(t, err, ErrUnknownCondition)
}

func TestCoveredReportsUnseededCombinations(t *testing.T) {
	eval := seededEvaluator()
	require.NoError(t, eval.Covered(ActionList, ResourceUser))
	require.ErrorIs(t, eval.Covered(ActionPublish, ResourceBlogTag), ErrNotSeeded)
}
