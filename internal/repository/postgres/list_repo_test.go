package postgres_test

import (
	"context"
	"testing"

	"github.com/dom/shared-lists/internal/domain"
	"github.com/dom/shared-lists/internal/repository"
	"github.com/dom/shared-lists/internal/repository/postgres"
	"github.com/dom/shared-lists/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRepository(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	ctx := context.Background()

	list := testutil.NewListBuilder().WithName("Groceries").WithItems("Milk", "Eggs").Build(t, testDB.DB)

	t.Run("get preloads items in order", func(t *testing.T) {
		got, err := repos.List.GetByID(ctx, list.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 2)
		assert.Equal(t, "Milk", got.Items[0].Name)
		assert.Equal(t, "Eggs", got.Items[1].Name)
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := repos.List.Exists(ctx, list.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repos.List.Exists(ctx, list.ID+1000)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("update", func(t *testing.T) {
		desc := "weekly"
		require.NoError(t, repos.List.Update(ctx, &domain.ShoppingList{ID: list.ID, Name: "Weekly groceries", Description: &desc}))

		got, err := repos.List.GetByID(ctx, list.ID)
		require.NoError(t, err)
		assert.Equal(t, "Weekly groceries", got.Name)
		require.NotNil(t, got.Description)
		assert.Equal(t, "weekly", *got.Description)

		assert.ErrorIs(t, repos.List.Update(ctx, &domain.ShoppingList{ID: 9999, Name: "x"}), repository.ErrNotFound)
	})

	t.Run("search item names", func(t *testing.T) {
		testutil.NewListBuilder().WithName("Other").WithItems("Milk", "Oat milk", "100%_juice").Build(t, testDB.DB)

		names, err := repos.Item.SearchNames(ctx, "MILK", 20)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Milk", "Oat milk"}, names)

		names, err = repos.Item.SearchNames(ctx, "%_", 20)
		require.NoError(t, err)
		assert.Equal(t, []string{"100%_juice"}, names, "LIKE wildcards are matched literally")
	})

	t.Run("delete cascades to items", func(t *testing.T) {
		got, err := repos.List.GetByID(ctx, list.ID)
		require.NoError(t, err)
		itemID := got.Items[0].ID

		require.NoError(t, repos.List.Delete(ctx, list.ID))
		assert.ErrorIs(t, repos.List.Delete(ctx, list.ID), repository.ErrNotFound)

		_, err = repos.Item.GetByID(ctx, itemID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestItemRepository(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	ctx := context.Background()

	list := testutil.NewListBuilder().Build(t, testDB.DB)

	item := &domain.Item{ShoppingListID: list.ID, Name: "Bread", Quantity: 1}
	require.NoError(t, repos.Item.Create(ctx, item))
	assert.NotZero(t, item.ID)

	item.Completed = true
	item.Quantity = 2
	require.NoError(t, repos.Item.Update(ctx, item))

	got, err := repos.Item.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, 2, got.Quantity)

	require.NoError(t, repos.Item.Delete(ctx, item.ID))
	assert.ErrorIs(t, repos.Item.Delete(ctx, item.ID), repository.ErrNotFound)
	assert.ErrorIs(t, repos.Item.Update(ctx, item), repository.ErrNotFound)

	orphan := &domain.Item{ShoppingListID: list.ID + 1000, Name: "Ghost", Quantity: 1}
	assert.Error(t, repos.Item.Create(ctx, orphan), "foreign key rejects unknown lists")
}
