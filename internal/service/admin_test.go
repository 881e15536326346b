package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestAdmin_VendorApproval(t *testing.T) {
	pending := &models.User{ID: 10, Username: "pending", Role: models.RoleVendor}
	doomed := &models.User{ID: 11, Username: "doomed", Role: models.RoleVendor}
	approved := &models.User{ID: 12, Username: "ok", Role: models.RoleVendor, IsApproved: true}
	users := newFakeUserRepo(pending, doomed, approved)
	svc := service.NewAdminService(newLogger(), users, newFakeCategoryRepo())
	ctx := context.Background()

	list, err := svc.PendingVendors(ctx)
	assert.NoError(t, err)
	assert.Len(t, list, 2)

	assert.NoError(t, svc.ApproveVendor(ctx, pending.ID))
	assert.True(t, users.users[pending.ID].IsApproved)

	assert.NoError(t, svc.RejectVendor(ctx, doomed.ID))
	assert.NotContains(t, users.users, doomed.ID)

	// одобренного продавца отклонить нельзя
	err = svc.RejectVendor(ctx, approved.ID)
	assert.True(t, errors.Is(err, service.ErrNotFound))

	err = svc.ApproveVendor(ctx, 404)
	assert.True(t, errors.Is(err, service.ErrNotFound))

	list, err = svc.PendingVendors(ctx)
	assert.NoError(t, err)
	assert.Empty(t, list)
}

func TestAdmin_Categories(t *testing.T) {
	categories := newFakeCategoryRepo()
	svc := service.NewAdminService(newLogger(), newFakeUserRepo(), categories)
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, "  Stationery ")
	assert.NoError(t, err)
	assert.Equal(t, "Stationery", c.Name)

	_, err = svc.CreateCategory(ctx, "Stationery")
	assert.True(t, errors.Is(err, service.ErrConflict))

	_, err = svc.CreateCategory(ctx, " ")
	assert.True(t, errors.Is(err, service.ErrValidation))

	assert.NoError(t, svc.DeleteCategory(ctx, c.ID))
	err = svc.DeleteCategory(ctx, c.ID)
	assert.True(t, errors.Is(err, service.ErrNotFound))
}
