package db

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/ideabox/internal/identity/entity"
	"github.com/shandysiswandi/ideabox/internal/pkg/goerror"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	MongoUserCollection  = "user_credentials"
	MongoAdminCollection = "admin_credentials"
)

type identityDoc struct {
	CorporateID string     `bson:"corporateId"`
	Email       string     `bson:"email"`
	Role        string     `bson:"role,omitempty"`
	OTP         *string    `bson:"otp,omitempty"`
	OTPExpiry   *time.Time `bson:"otpExpiry,omitempty"`
}

func (d identityDoc) toEntity() *entity.Identity {
	return &entity.Identity{
		CorporateID: d.CorporateID,
		Email:       d.Email,
		Role:        d.Role,
		OTP:         d.OTP,
		OTPExpiry:   d.OTPExpiry,
	}
}

// Mongo stores identities in two collections of one database.
type Mongo struct {
	users  *mongo.Collection
	admins *mongo.Collection
	tracer
}

func NewMongo(db *mongo.Database, ins instrument.Instrumentation) *Mongo {
	return &Mongo{
		users:  db.Collection(MongoUserCollection),
		admins: db.Collection(MongoAdminCollection),
		tracer: tracer{ins: ins},
	}
}

func (m *Mongo) collection(c entity.Collection) (*mongo.Collection, error) {
	switch c {
	case entity.CollectionUser:
		return m.users, nil
	case entity.CollectionAdmin:
		return m.admins, nil
	default:
		return nil, errUnknownCollection
	}
}

// EnsureIndexes creates a unique corporateId index on both collections.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	for _, coll := range []*mongo.Collection{m.users, m.admins} {
		_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "corporateId", Value: 1}},
			Options: options.Index().SetName("idx_" + coll.Name() + "_corporate_id").SetUnique(true),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Mongo) FindByCorporateID(ctx context.Context, c entity.Collection, corporateID string) (_ *entity.Identity, err error) {
	ctx, span := m.startSpan(ctx, "FindByCorporateID", c)
	defer func() { m.endSpan(span, err) }()

	return m.findOne(ctx, c, bson.M{"corporateId": corporateID})
}

// FindByCorporateIDAndCode matches the code inside the query filter.
func (m *Mongo) FindByCorporateIDAndCode(ctx context.Context, c entity.Collection, corporateID, code string) (_ *entity.Identity, err error) {
	ctx, span := m.startSpan(ctx, "FindByCorporateIDAndCode", c)
	defer func() { m.endSpan(span, err) }()

	return m.findOne(ctx, c, bson.M{"corporateId": corporateID, "otp": code})
}

func (m *Mongo) findOne(ctx context.Context, c entity.Collection, filter bson.M) (*entity.Identity, error) {
	coll, err := m.collection(c)
	if err != nil {
		return nil, err
	}

	var doc identityDoc
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerror.ErrNotFound
		}
		return nil, err
	}

	return doc.toEntity(), nil
}

func (m *Mongo) SetOTP(ctx context.Context, c entity.Collection, corporateID string, ch entity.Challenge) (err error) {
	ctx, span := m.startSpan(ctx, "SetOTP", c)
	defer func() { m.endSpan(span, err) }()

	return m.updateOne(ctx, c, corporateID, bson.M{"$set": bson.M{
		"otp":       ch.Code,
		"otpExpiry": ch.ExpiresAt.UTC(),
	}})
}

// ClearOTP removes both fields rather than nulling them.
func (m *Mongo) ClearOTP(ctx context.Context, c entity.Collection, corporateID string) (err error) {
	ctx, span := m.startSpan(ctx, "ClearOTP", c)
	defer func() { m.endSpan(span, err) }()

	return m.updateOne(ctx, c, corporateID, bson.M{"$unset": bson.M{
		"otp":       "",
		"otpExpiry": "",
	}})
}

func (m *Mongo) updateOne(ctx context.Context, c entity.Collection, corporateID string, update bson.M) error {
	coll, err := m.collection(c)
	if err != nil {
		return err
	}

	res, err := coll.UpdateOne(ctx, bson.M{"corporateId": corporateID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
