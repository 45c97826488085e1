package core

import "fmt"

// Relation names a directed many-to-many association between two IDs.
type Relation int

const (
	// LikesPost pairs (userId, postId).
	LikesPost Relation = iota + 1
	// LikesComment pairs (userId, commentId).
	LikesComment
	// SavesPost pairs (userId, postId).
	SavesPost
	// Follows pairs (followerId, followeeId).
	Follows
)

// Relations lists every known relation.
var Relations = []Relation{LikesPost, LikesComment, SavesPost, Follows}

// Name returns the persisted collection name of the relation.
func (r Relation) Name() string {
	switch r {
	case LikesPost:
		return "likes_post"
	case LikesComment:
		return "likes_comment"
	case SavesPost:
		return "saves_post"
	case Follows:
		return "follows"
	default:
		return fmt.Sprintf("relation(%d)", int(r))
	}
}

func (r Relation) String() string {
	return r.Name()
}

// ValidateRelation checks that r is one of the known relations.
func ValidateRelation(r Relation) error {
	switch r {
	case LikesPost, LikesComment, SavesPost, Follows:
		return nil
	}
	return fmt.Errorf("%w: value %d", ErrInvalidRelation, r)
}
