package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-shop/storefront-service/internal/domain"
	"github.com/lumen-shop/storefront-service/internal/events"
	"github.com/lumen-shop/storefront-service/internal/repository/memory"
	apperrors "github.com/lumen-shop/storefront-service/pkg/util/errorutil"
)

func TestContactSubmit(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	dispatcher := events.NewInMemoryDispatcher()
	rec := &recorder{}
	dispatcher.Subscribe(events.EventContactMessageReceived, rec.handle)
	svc := NewContactService(store.Contacts(), dispatcher, nil)

	ana := &domain.User{Name: "Ana", Email: "ana@x.com", Role: domain.RoleCustomer, Active: true}
	require.NoError(t, store.Users().Create(ctx, ana))

	anon, err := svc.Submit(ctx, ContactInput{Name: "Visitor", Email: "V@X.com", Subject: ptr("  "), Message: " hi "}, nil)
	require.NoError(t, err)
	assert.Equal(t, "v@x.com", anon.Email)
	assert.Nil(t, anon.Subject)
	assert.Equal(t, "hi", anon.Message)
	assert.Nil(t, anon.UserID)

	mine, err := svc.Submit(ctx, ContactInput{Name: "Ana", Email: "ana@x.com", Subject: ptr("Order"), Message: "where is it"},
		&domain.Session{UserID: ana.ID, Role: domain.RoleCustomer})
	require.NoError(t, err)
	require.NotNil(t, mine.UserID)
	assert.Equal(t, ana.ID, *mine.UserID)

	ghost, err := svc.Submit(ctx, ContactInput{Name: "G", Email: "g@x.com", Message: "boo"}, &domain.Session{UserID: 777})
	require.NoError(t, err)
	assert.Nil(t, ghost.UserID)

	assert.Len(t, rec.ofType(events.EventContactMessageReceived), 3)

	listed, err := svc.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, ghost.ID, listed[0].ID)

	rest, err := svc.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, anon.ID, rest[0].ID)
}

func TestContactValidation(t *testing.T) {
	svc := NewContactService(memory.NewStore().Contacts(), nil, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, ContactInput{Email: "a@b.co", Message: "x"}, nil)
	requireCode(t, err, apperrors.CodeValidation)
	_, err = svc.Submit(ctx, ContactInput{Name: "A", Email: "nope", Message: "x"}, nil)
	requireCode(t, err, apperrors.CodeValidation)
	_, err = svc.Submit(ctx, ContactInput{Name: "A", Email: "a@b.co", Message: "  "}, nil)
	requireCode(t, err, apperrors.CodeValidation)
}
