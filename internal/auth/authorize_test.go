package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/pkg/identity"
)

func TestAuthorize(t *testing.T) {
	consumer := &identity.User{ID: 1, Role: identity.RoleConsumer}
	producer := &identity.User{ID: 2, Role: identity.RoleProducer}
	admin := &identity.User{ID: 3, Role: identity.RoleAdmin}

	require.NoError(t, Authorize(consumer, ActionPlaceOrder))
	require.NoError(t, Authorize(producer, ActionManageProducts))
	require.NoError(t, Authorize(admin, ActionManagePlatform))

	require.ErrorIs(t, Authorize(consumer, ActionManageProducts), domain.ErrForbidden)
	require.ErrorIs(t, Authorize(producer, ActionPlaceOrder), domain.ErrForbidden)
	require.ErrorIs(t, Authorize(admin, ActionUseCart), domain.ErrForbidden)
}

func TestAuthorize_NilUser(t *testing.T) {
	require.ErrorIs(t, Authorize(nil, ActionUseCart), domain.ErrForbidden)
}
