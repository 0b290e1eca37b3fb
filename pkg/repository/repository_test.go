package repository

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/example/artshop/pkg/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func seedPrint(t *testing.T, db *gorm.DB, title, price string, categoryID *uint) *models.ArtPrint {
	p := &models.ArtPrint{
		Title:       title,
		Description: title + " description",
		Image:       "prints/" + title + ".png",
		CategoryID:  categoryID,
		Price:       decimal.RequireFromString(price),
		IsAvailable: true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	u := &models.User{Username: name, Email: name + "@example.com"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func pendingOrder(userID *uint, sessionID string, prints ...*models.ArtPrint) *models.Order {
	order := &models.Order{
		UserID:          userID,
		StripeSessionID: sessionID,
		TotalAmount:     decimal.Zero,
	}
	for _, p := range prints {
		id := p.ID
		order.Items = append(order.Items, models.OrderItem{ArtPrintID: &id, Quantity: 1, Price: p.Price})
		order.TotalAmount = order.TotalAmount.Add(p.Price)
	}
	return order
}

func TestCatalog_SlugDerivedFromTitle(t *testing.T) {
	db := setupTestDB(t)
	p := seedPrint(t, db, "Moonlit Forest", "10.00", nil)
	assert.Equal(t, "moonlit-forest", p.Slug)

	repo := NewCatalogRepository(db)
	got, err := repo.GetBySlug(context.Background(), "moonlit-forest")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.True(t, decimal.RequireFromString("10.00").Equal(got.Price))

	_, err = repo.GetBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_ListAvailableAndRelated(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	cat, err := repo.GetOrCreateCategory(ctx, "Mystic Creatures")
	require.NoError(t, err)
	assert.Equal(t, "mystic-creatures", cat.Slug)

	again, err := repo.GetOrCreateCategory(ctx, "Mystic Creatures")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, again.ID)

	a := seedPrint(t, db, "A", "10.00", &cat.ID)
	b := seedPrint(t, db, "B", "12.00", &cat.ID)
	hidden := seedPrint(t, db, "Hidden", "12.00", &cat.ID)
	require.NoError(t, db.Model(hidden).Update("is_available", false).Error)
	seedPrint(t, db, "Loose", "5.00", nil)

	all, err := repo.ListAvailable(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	inCat, err := repo.ListAvailable(ctx, &cat.ID)
	require.NoError(t, err)
	require.Len(t, inCat, 2)
	assert.Equal(t, b.ID, inCat[0].ID)

	related, err := repo.Related(ctx, a, 4)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, b.ID, related[0].ID)
}

func TestCatalog_FindByIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCatalogRepository(db)
	p := seedPrint(t, db, "A", "10.00", nil)

	found, err := repo.FindByIDs(context.Background(), []uint{p.ID, 999})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Contains(t, found, p.ID)

	exists, err := repo.SlugExists(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOrders_CreatePending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	p := seedPrint(t, db, "A", "10.00", nil)

	order := pendingOrder(nil, "cs_test_1", p)
	order.Status = models.OrderStatusPaid
	require.NoError(t, repo.CreatePending(context.Background(), order))

	stored, err := repo.GetBySessionID(context.Background(), "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.False(t, stored.IsCompleted)
	require.Len(t, stored.Items, 1)
	assert.True(t, decimal.RequireFromString("10.00").Equal(stored.Items[0].Price))
}

func TestOrders_MarkPaidOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	lib := NewLibraryRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "ana")
	p := seedPrint(t, db, "A", "10.00", nil)
	require.NoError(t, repo.CreatePending(ctx, pendingOrder(&user.ID, "cs_1", p)))

	order, transitioned, err := repo.MarkPaid(ctx, "cs_1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.True(t, transitioned)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	require.NotNil(t, order.User)
	assert.Equal(t, "ana@example.com", order.User.Email)
	require.NotNil(t, order.Items[0].ArtPrint)

	ok, err := lib.HasEntitlement(ctx, user.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	order, transitioned, err = repo.MarkPaid(ctx, "cs_1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.False(t, transitioned)

	var grants int64
	require.NoError(t, db.Model(&models.Entitlement{}).Count(&grants).Error)
	assert.Equal(t, int64(1), grants)
}

func TestOrders_MarkPaidUnknownSession(t *testing.T) {
	db := setupTestDB(t)

	order, transitioned, err := NewOrderRepository(db).MarkPaid(context.Background(), "cs_missing")
	require.NoError(t, err)
	assert.Nil(t, order)
	assert.False(t, transitioned)
}

func TestOrders_MarkPaidConcurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "ana")
	p := seedPrint(t, db, "A", "10.00", nil)
	require.NoError(t, repo.CreatePending(ctx, pendingOrder(&user.ID, "cs_race", p)))

	const callers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		wins  int
		fails []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, transitioned, err := repo.MarkPaid(ctx, "cs_race")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fails = append(fails, err)
				return
			}
			if transitioned {
				wins++
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, fails)
	assert.Equal(t, 1, wins)
}

func TestOrders_GuestGetsNoEntitlements(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	p := seedPrint(t, db, "A", "10.00", nil)
	require.NoError(t, repo.CreatePending(context.Background(), pendingOrder(nil, "cs_guest", p)))

	_, transitioned, err := repo.MarkPaid(context.Background(), "cs_guest")
	require.NoError(t, err)
	assert.True(t, transitioned)

	var grants int64
	require.NoError(t, db.Model(&models.Entitlement{}).Count(&grants).Error)
	assert.Zero(t, grants)
}

func TestOrders_ListCompletedByUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "ana")
	p := seedPrint(t, db, "A", "10.00", nil)
	require.NoError(t, repo.CreatePending(ctx, pendingOrder(&user.ID, "cs_a", p)))
	require.NoError(t, repo.CreatePending(ctx, pendingOrder(&user.ID, "cs_b", p)))
	_, _, err := repo.MarkPaid(ctx, "cs_b")
	require.NoError(t, err)

	orders, err := repo.ListCompletedByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "cs_b", orders[0].StripeSessionID)
}

func TestOrders_CreatePendingRollsBack(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `orders`")).WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	err = NewOrderRepository(db).CreatePending(context.Background(), pendingOrder(nil, "cs_x"))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLibrary_Wishlist(t *testing.T) {
	db := setupTestDB(t)
	lib := NewLibraryRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "ana")
	p := seedPrint(t, db, "A", "10.00", nil)

	require.NoError(t, lib.AddToWishlist(ctx, user.ID, p.ID))
	require.NoError(t, lib.AddToWishlist(ctx, user.ID, p.ID))

	in, err := lib.InWishlist(ctx, user.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, in)

	list, err := lib.Wishlist(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "A", list[0].Title)

	require.NoError(t, lib.RemoveFromWishlist(ctx, user.ID, p.ID))
	require.NoError(t, lib.RemoveFromWishlist(ctx, user.ID, p.ID))
	list, err = lib.Wishlist(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCommissions_OwnerScoping(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	c := &models.CommissionRequest{
		UserID:         1,
		Title:          "Logo",
		CommissionType: models.CommissionLogo,
		Description:    "A fox",
		Status:         models.CommissionPending,
	}
	require.NoError(t, repo.Create(ctx, c))

	_, err := repo.GetForUser(ctx, 2, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := repo.GetForUser(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Logo", got.Title)

	list, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, got))
	_, err = repo.GetForUser(ctx, 1, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
