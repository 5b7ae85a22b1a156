package leavetype_test

import (
	"context"
	"errors"
	"testing"

	"go-leave/internal/leavetype"
	leavetypeMock "go-leave/internal/leavetype/mock"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

func TestLeaveTypeService_GetAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := leavetypeMock.NewMockRepository(ctrl)
	svc := leavetype.NewService(repo)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo.EXPECT().FindAll(ctx).Return(leavetype.Defaults, nil)

		resp, err := svc.GetAll(ctx)

		assert.NoError(t, err)
		assert.Len(t, resp, 4)
		assert.Equal(t, "Casual Leave", resp[0].Name)
		assert.True(t, resp[1].IsAutoApprove)
		assert.True(t, resp[3].IsLop)
	})

	t.Run("negative repo error", func(t *testing.T) {
		repo.EXPECT().FindAll(ctx).Return(nil, errors.New("db down"))

		resp, err := svc.GetAll(ctx)

		assert.Error(t, err)
		assert.Nil(t, resp)
	})
}

func TestLeaveTypeService_GetByID(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := leavetypeMock.NewMockRepository(ctrl)
	svc := leavetype.NewService(repo)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		repo.EXPECT().FindByID(ctx, 99).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.GetByID(ctx, 99)

		assert.ErrorIs(t, err, leavetype.ErrLeaveTypeNotFound)
	})
}

func TestLeaveTypeService_Seed(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := leavetypeMock.NewMockRepository(ctrl)
	svc := leavetype.NewService(repo)
	ctx := context.Background()

	repo.EXPECT().EnsureDefaults(ctx, leavetype.Defaults).Return(nil)

	assert.NoError(t, svc.Seed(ctx))
}
