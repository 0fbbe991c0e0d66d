package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/ideabox/internal/idea/entity"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const MongoIdeaCollection = "idea_submissions"

type ideaDoc struct {
	ID                    string    `bson:"_id"`
	EmployeeName          string    `bson:"employeeName"`
	EmployeeID            string    `bson:"employeeId"`
	EmployeeFunction      string    `bson:"employeeFunction"`
	Location              string    `bson:"location"`
	IdeaTheme             string    `bson:"ideaTheme"`
	Department            string    `bson:"department"`
	BenefitsCategory      string    `bson:"benefitsCategory"`
	IdeaDescription       string    `bson:"ideaDescription"`
	ImpactedProcess       string    `bson:"impactedProcess"`
	ExpectedBenefitsValue string    `bson:"expectedBenefitsValue"`
	Attachment            *string   `bson:"attachment"`
	SubmittedAt           time.Time `bson:"submittedAt"`
}

func fromEntity(i entity.Idea) ideaDoc {
	return ideaDoc{
		ID:                    i.ID,
		EmployeeName:          i.EmployeeName,
		EmployeeID:            i.EmployeeID,
		EmployeeFunction:      i.EmployeeFunction,
		Location:              i.Location,
		IdeaTheme:             i.IdeaTheme,
		Department:            i.Department,
		BenefitsCategory:      i.BenefitsCategory,
		IdeaDescription:       i.IdeaDescription,
		ImpactedProcess:       i.ImpactedProcess,
		ExpectedBenefitsValue: i.ExpectedBenefitsValue,
		Attachment:            i.Attachment,
		SubmittedAt:           i.SubmittedAt.UTC(),
	}
}

func (d ideaDoc) toEntity() entity.Idea {
	return entity.Idea{
		ID:                    d.ID,
		EmployeeName:          d.EmployeeName,
		EmployeeID:            d.EmployeeID,
		EmployeeFunction:      d.EmployeeFunction,
		Location:              d.Location,
		IdeaTheme:             d.IdeaTheme,
		Department:            d.Department,
		BenefitsCategory:      d.BenefitsCategory,
		IdeaDescription:       d.IdeaDescription,
		ImpactedProcess:       d.ImpactedProcess,
		ExpectedBenefitsValue: d.ExpectedBenefitsValue,
		Attachment:            d.Attachment,
		SubmittedAt:           d.SubmittedAt,
	}
}

type Mongo struct {
	coll *mongo.Collection
	ins  instrument.Instrumentation
}

func NewMongo(db *mongo.Database, ins instrument.Instrumentation) *Mongo {
	return &Mongo{coll: db.Collection(MongoIdeaCollection), ins: ins}
}

func (m *Mongo) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.ins.Tracer("idea.outbound.db").Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// EnsureIndexes backs the newest-first listing and the employee filter.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "submittedAt", Value: -1}},
			Options: options.Index().SetName("idx_idea_submitted_at"),
		},
		{
			Keys:    bson.D{{Key: "employeeId", Value: 1}, {Key: "submittedAt", Value: -1}},
			Options: options.Index().SetName("idx_idea_employee_submitted_at"),
		},
	})
	return err
}

func (m *Mongo) CreateIdea(ctx context.Context, idea entity.Idea) (err error) {
	ctx, span := m.startSpan(ctx, "CreateIdea")
	defer func() { endSpan(span, err) }()

	_, err = m.coll.InsertOne(ctx, fromEntity(idea))
	return err
}

func (m *Mongo) ListIdeas(ctx context.Context, filter entity.ListFilter) (_ []entity.Idea, _ int64, err error) {
	ctx, span := m.startSpan(ctx, "ListIdeas")
	defer func() { endSpan(span, err) }()

	query := bson.M{}
	if filter.EmployeeID != "" {
		query["employeeId"] = filter.EmployeeID
	}

	total, err := m.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "submittedAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(filter.Offset)
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cur, err := m.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var docs []ideaDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	ideas := make([]entity.Idea, 0, len(docs))
	for _, d := range docs {
		ideas = append(ideas, d.toEntity())
	}

	return ideas, total, nil
}
