package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	"airbrb/internal/app/uow"
	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
	domainreviews "airbrb/internal/domain/reviews"
)

const bookingLocksCollection = "booking_locks"

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ListingsRepo *ListingRepository
	BookingsRepo *BookingRepository
	ReviewsRepo  *ReviewRepository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:           db,
		ListingsRepo: NewListingRepository(db),
		BookingsRepo: NewBookingRepository(db),
		ReviewsRepo:  NewReviewRepository(db),
	}
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil || f.ListingsRepo == nil || f.BookingsRepo == nil || f.ReviewsRepo == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Snapshot())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:       f.DB,
		session:  session,
		listings: f.ListingsRepo,
		bookings: f.BookingsRepo,
		reviews:  f.ReviewsRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

	listings *ListingRepository
	bookings *BookingRepository
	reviews  *ReviewRepository
}

func (u *Unit) Listings() domainlistings.ListingRepository {
	return u.listings
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Reviews() domainreviews.Repository {
	return u.reviews
}

// LockListing bumps the listing's booking sequence inside the transaction.
// A second transaction doing the same before the first ends gets a write
// conflict, which is reported as uow.ErrConcurrentBooking.
func (u *Unit) LockListing(ctx context.Context, id domainlistings.ListingID) error {
	sctx := mongo.NewSessionContext(ctx, u.session)
	_, err := u.db.Collection(bookingLocksCollection).UpdateOne(sctx,
		bson.M{"_id": string(id)},
		bson.M{"$inc": bson.M{"seq": 1}, "$set": bson.M{"locked_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err == nil {
		return nil
	}
	if isWriteConflict(err) || mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("listing %s: %w", id, uow.ErrConcurrentBooking)
	}
	return err
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		if isWriteConflict(err) {
			return fmt.Errorf("commit: %w", uow.ErrConcurrentBooking)
		}
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
var _ uow.Injector = (*Unit)(nil)
