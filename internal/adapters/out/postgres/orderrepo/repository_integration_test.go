package orderrepo_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"separation/internal/adapters/out/postgres/orderrepo"
	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"
	"separation/internal/core/ports"
	"separation/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OrderRepositoryIntegrationTestSuite runs the repository against a real
// PostgreSQL container.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&orderrepo.OrderDTO{}, &orderrepo.LineItemDTO{}))
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE line_items, orders").Error)
	suite.repository = orderrepo.NewGormOrderRepository(suite.db)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_PersistsOrderAndLines() {
	ctx := suite.T().Context()
	o := suite.newOrder("PED-1", 3)

	suite.Require().NoError(suite.repository.Add(ctx, o))

	loaded, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(o.ExternalReference(), loaded.ExternalReference())
	suite.Equal(order.InProgress, loaded.Status())
	suite.Equal(o.Logistics(), loaded.Logistics())
	suite.Require().Len(loaded.Lines(), 3)
	for i, l := range loaded.Lines() {
		want := o.Lines()[i]
		suite.True(want.ID().IsEqual(l.ID()))
		suite.Equal(i+1, l.Position())
		suite.Equal(order.Pending, l.State())
		suite.True(want.UnitPrice().Equal(l.UnitPrice()))
		suite.True(want.LineTotal().Equal(l.LineTotal()))
	}
	suite.WithinDuration(o.StartedAt(), loaded.StartedAt(), time.Millisecond)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_DuplicateExternalReference() {
	ctx := suite.T().Context()
	suite.Require().NoError(suite.repository.Add(ctx, suite.newOrder("PED-dup", 1)))

	err := suite.repository.Add(ctx, suite.newOrder("PED-dup", 2))

	suite.Require().ErrorIs(err, ports.ErrDuplicateExternalReference)
	suite.assertCount("orders", 1)
	suite.assertCount("line_items", 1)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_UnknownOrder() {
	_, err := suite.repository.Get(suite.T().Context(), kernel.NewUUID())

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_CanceledContextIsStorageUnavailable() {
	ctx, cancel := context.WithCancel(suite.T().Context())
	cancel()

	_, err := suite.repository.Get(ctx, kernel.NewUUID())

	suite.Require().ErrorIs(err, errs.ErrStorageUnavailable)
	suite.Require().ErrorIs(err, context.Canceled)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdateLine_CompareAndSet() {
	ctx := suite.T().Context()
	o := suite.newOrder("PED-cas", 2)
	suite.Require().NoError(suite.repository.Add(ctx, o))
	line := o.Lines()[0]
	expectedState, expectedVersion := line.State(), line.Version()
	suite.Require().NoError(line.Separate(suite.actor("worker-1"), time.Now()))

	applied, err := suite.repository.UpdateLine(ctx, line, expectedState, expectedVersion)
	suite.Require().NoError(err)
	suite.True(applied)

	// Same precondition again: the stored row moved on.
	applied, err = suite.repository.UpdateLine(ctx, line, expectedState, expectedVersion)
	suite.Require().NoError(err)
	suite.False(applied)

	stored, err := suite.repository.GetLine(ctx, o.ID(), line.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Separated, stored.State())
	suite.Equal(int64(2), stored.Version())
	suite.Equal("worker-1", stored.Separated().By.String())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdateLine_ConcurrentSeparateHasOneWinner() {
	ctx := suite.T().Context()
	o := suite.newOrder("PED-race", 1)
	suite.Require().NoError(suite.repository.Add(ctx, o))
	lineID := o.Lines()[0].ID()

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		start   = make(chan struct{})
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Every worker acts on its own snapshot of the pending line.
			line, err := suite.repository.GetLine(ctx, o.ID(), lineID)
			if err != nil {
				suite.T().Error(err)
				return
			}
			name := fmt.Sprintf("worker-%d", i)
			expectedState, expectedVersion := line.State(), line.Version()
			if err = line.Separate(suite.actor(name), time.Now()); err != nil {
				suite.T().Error(err)
				return
			}
			<-start
			applied, err := suite.repository.UpdateLine(ctx, line, expectedState, expectedVersion)
			if err != nil {
				suite.T().Error(err)
				return
			}
			if applied {
				mu.Lock()
				winners = append(winners, name)
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	suite.Require().Len(winners, 1)
	stored, err := suite.repository.GetLine(ctx, o.ID(), lineID)
	suite.Require().NoError(err)
	suite.Equal(winners[0], stored.Separated().By.String())
	suite.Equal(int64(2), stored.Version())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdateLine_RejectedOnFinalizedOrder() {
	ctx := suite.T().Context()
	o := suite.newOrder("PED-final", 1)
	line := o.Lines()[0]
	suite.Require().NoError(suite.repository.Add(ctx, o))
	suite.separateAll(ctx, o)
	_, err := o.Finalize(suite.actor("admin"), time.Now())
	suite.Require().NoError(err)
	applied, err := suite.repository.Finalize(ctx, o)
	suite.Require().NoError(err)
	suite.Require().True(applied)

	expectedState, expectedVersion := line.State(), line.Version()
	suite.Require().NoError(line.Substitute("alt", suite.actor("worker-9"), time.Now()))
	applied, err = suite.repository.UpdateLine(ctx, line, expectedState, expectedVersion)

	suite.Require().NoError(err)
	suite.False(applied)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestFinalize_Conditions() {
	ctx := suite.T().Context()

	suite.Run("incomplete_order_is_not_finalized", func() {
		o := suite.newOrder("PED-inc", 2)
		suite.Require().NoError(suite.repository.Add(ctx, o))
		lines := o.Lines()
		suite.update(ctx, lines[0], func(l *order.LineItem) error { return l.Separate(suite.actor("w1"), time.Now()) })
		// The second line is resolved in memory only.
		suite.Require().NoError(lines[1].Separate(suite.actor("w2"), time.Now()))
		_, err := o.Finalize(suite.actor("admin"), time.Now())
		suite.Require().NoError(err)

		applied, err := suite.repository.Finalize(ctx, o)

		suite.Require().NoError(err)
		suite.False(applied)
	})

	suite.Run("second_finalize_is_not_applied", func() {
		o := suite.newOrder("PED-twice", 1)
		suite.Require().NoError(suite.repository.Add(ctx, o))
		suite.separateAll(ctx, o)
		_, err := o.Finalize(suite.actor("admin"), time.Now())
		suite.Require().NoError(err)

		first, err := suite.repository.Finalize(ctx, o)
		suite.Require().NoError(err)
		second, err := suite.repository.Finalize(ctx, o)
		suite.Require().NoError(err)

		suite.True(first)
		suite.False(second)
		loaded, err := suite.repository.Get(ctx, o.ID())
		suite.Require().NoError(err)
		suite.Equal(order.Finalized, loaded.Status())
		suite.Equal("admin", loaded.FinalizedBy().String())
	})

	suite.Run("in_progress_aggregate_is_refused", func() {
		o := suite.newOrder("PED-open", 1)
		suite.Require().NoError(suite.repository.Add(ctx, o))

		_, err := suite.repository.Finalize(ctx, o)

		suite.Require().ErrorIs(err, errs.ErrValueIsInvalid)
	})
}

func (suite *OrderRepositoryIntegrationTestSuite) TestProgress() {
	ctx := suite.T().Context()
	o := suite.newOrder("PED-progress", 3)
	suite.Require().NoError(suite.repository.Add(ctx, o))

	lines := o.Lines()
	suite.update(ctx, lines[0], func(l *order.LineItem) error { return l.Separate(suite.actor("w1"), time.Now()) })
	suite.update(ctx, lines[1], func(l *order.LineItem) error { return l.MarkForPurchase(suite.actor("w2"), time.Now()) })
	suite.update(ctx, lines[2], func(l *order.LineItem) error { return l.Substitute("alt", suite.actor("w3"), time.Now()) })

	p, err := suite.repository.Progress(ctx, o.ID())

	suite.Require().NoError(err)
	suite.Equal(2, p.Resolved())
	suite.Equal(3, p.Total())

	_, err = suite.repository.Progress(ctx, kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdateShipping() {
	ctx := suite.T().Context()
	o := suite.newOrder("PED-ship", 1)
	suite.Require().NoError(suite.repository.Add(ctx, o))
	suite.Require().NoError(o.ChangeShipping(order.CustomerPickup, order.Bag))

	suite.Require().NoError(suite.repository.UpdateShipping(ctx, o))

	loaded, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.CustomerPickup, loaded.Logistics())
	suite.Equal(order.Bag, loaded.Packaging())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_RestoresPurchaseStamps() {
	ctx := suite.T().Context()
	o := suite.newOrder("PED-stamps", 1)
	suite.Require().NoError(suite.repository.Add(ctx, o))
	line := o.Lines()[0]
	suite.update(ctx, line, func(l *order.LineItem) error { return l.MarkForPurchase(suite.actor("worker-1"), time.Now()) })
	suite.update(ctx, line, func(l *order.LineItem) error { return l.ConfirmPurchase(suite.actor("buyer-1"), time.Now()) })

	loaded, err := suite.repository.Get(ctx, o.ID())

	suite.Require().NoError(err)
	stored := loaded.Lines()[0]
	suite.Equal(order.Purchased, stored.State())
	suite.Equal("worker-1", stored.PurchaseRequested().By.String())
	suite.Equal("buyer-1", stored.PurchaseConfirmed().By.String())
	suite.Nil(stored.Separated())
}

func (suite *OrderRepositoryIntegrationTestSuite) newOrder(ref string, lines int) *order.Order {
	specs := make([]order.LineSpec, 0, lines)
	for i := 1; i <= lines; i++ {
		price := decimal.RequireFromString("19.9900")
		specs = append(specs, order.LineSpec{
			ProductCode: fmt.Sprintf("SKU-%d", i),
			Description: fmt.Sprintf("Item %d", i),
			Quantity:    i,
			UnitPrice:   price,
			LineTotal:   price.Mul(decimal.NewFromInt(int64(i))),
		})
	}
	o, err := order.NewOrder(kernel.NewUUID(), order.Spec{
		ExternalReference: ref,
		Client:            "Client",
		Salesperson:       "rep-1",
		Logistics:         order.BusFreight,
		Packaging:         order.Box,
		Lines:             specs,
	}, time.Now())
	suite.Require().NoError(err)
	return o
}

func (suite *OrderRepositoryIntegrationTestSuite) actor(ref string) kernel.Actor {
	a, err := kernel.NewActor(ref)
	suite.Require().NoError(err)
	return a
}

func (suite *OrderRepositoryIntegrationTestSuite) update(ctx context.Context, l *order.LineItem, move func(*order.LineItem) error) {
	expectedState, expectedVersion := l.State(), l.Version()
	suite.Require().NoError(move(l))
	applied, err := suite.repository.UpdateLine(ctx, l, expectedState, expectedVersion)
	suite.Require().NoError(err)
	suite.Require().True(applied)
}

func (suite *OrderRepositoryIntegrationTestSuite) separateAll(ctx context.Context, o *order.Order) {
	for _, l := range o.Lines() {
		suite.update(ctx, l, func(l *order.LineItem) error { return l.Separate(suite.actor("worker-1"), time.Now()) })
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) assertCount(table string, want int64) {
	var count int64
	suite.Require().NoError(suite.db.Table(table).Count(&count).Error)
	suite.Equal(want, count)
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
