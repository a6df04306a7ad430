// Package auth is the single capability check performed once per operation,
// replacing role flags scattered through call sites.
package auth

import (
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/pkg/identity"
)

type Action string

const (
	ActionManageProducts  Action = "manage_products"
	ActionUploadImages    Action = "upload_images"
	ActionUseCart         Action = "use_cart"
	ActionPlaceOrder      Action = "place_order"
	ActionViewOwnOrders   Action = "view_own_orders"
	ActionFulfillOrders   Action = "fulfill_orders"
	ActionSubmitReview    Action = "submit_review"
	ActionManagePlatform  Action = "manage_platform"
	ActionViewProducerOps Action = "view_producer_ops"
)

var roleActions = map[identity.Role]map[Action]struct{}{
	identity.RoleConsumer: {
		ActionUseCart:       {},
		ActionPlaceOrder:    {},
		ActionViewOwnOrders: {},
		ActionSubmitReview:  {},
	},
	identity.RoleProducer: {
		ActionManageProducts:  {},
		ActionUploadImages:    {},
		ActionFulfillOrders:   {},
		ActionViewProducerOps: {},
	},
	identity.RoleAdmin: {
		ActionManagePlatform: {},
	},
}

func Authorize(user *identity.User, action Action) error {
	if user == nil {
		return domain.ErrForbidden
	}

	if _, ok := roleActions[user.Role][action]; !ok {
		return domain.ErrForbidden
	}

	return nil
}
