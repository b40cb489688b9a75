package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	domain "github.com/koderius/ScaleSense-sub000/internal/domain"
	pfirestore "github.com/koderius/ScaleSense-sub000/internal/platform/firestore"
)

const actorsCollection = "actors"

type actorDocument struct {
	BusinessID  string   `firestore:"businessId"`
	Side        string   `firestore:"side"`
	Role        string   `firestore:"role"`
	Permissions []string `firestore:"permissions"`
}

// ActorRepository resolves caller identities from the actors collection. Reads
// participate in any transaction carried on the context so that permission
// data is consistent with the order read of the same unit of work.
type ActorRepository struct {
	base *pfirestore.BaseRepository[domain.Actor]
}

// NewActorRepository constructs a Firestore-backed actor repository.
func NewActorRepository(provider *pfirestore.Provider) (*ActorRepository, error) {
	if provider == nil {
		return nil, errors.New("actor repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository(provider, actorsCollection, decodeActor)
	return &ActorRepository{base: base}, nil
}

// FindByID fetches the actor identity document.
func (r *ActorRepository) FindByID(ctx context.Context, actorID string) (domain.Actor, error) {
	return r.base.Get(ctx, actorID)
}

func decodeActor(snap *firestore.DocumentSnapshot) (domain.Actor, error) {
	var doc actorDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Actor{}, err
	}
	actor := domain.Actor{
		ID:         snap.Ref.ID,
		BusinessID: doc.BusinessID,
		Side:       domain.Side(doc.Side),
		Role:       domain.Role(doc.Role),
	}
	for _, p := range doc.Permissions {
		actor.Permissions = append(actor.Permissions, domain.Permission(p))
	}
	return actor, nil
}
