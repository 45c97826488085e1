package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is assigned by the store (sequence, max+1 or content hash) and never reused.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// User is a member of the social graph.
// Only its owner edits it; users are never deleted.
type User struct {
	Id                ID
	Name              string
	Username          string
	ProfileImage      string // Optional URI
	Bio               string
	Website           string
	City              string
	Points            int
	Level             int
	AchievementBadges []string // Ordered badge ids
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Summary returns the public identity fields of the user.
func (u *User) Summary() SessionUser {
	return SessionUser{
		Id:           u.Id,
		Name:         u.Name,
		Username:     u.Username,
		ProfileImage: u.ProfileImage,
	}
}

// DisplayName returns the username, falling back to the name and then "User".
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.Name != "" {
		return u.Name
	}
	return "User"
}

// Pet belongs exclusively to its owner.
type Pet struct {
	Id        ID
	OwnerId   ID
	Name      string
	Breed     string
	Type      string
	Photos    []string // Ordered URIs
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tuple returns "(ownerId,name)", the content used to derive the pet ID.
func (p *Pet) Tuple() string {
	return "(" + strconv.FormatUint(uint64(p.OwnerId), 10) + "," + p.Name + ")"
}

// Post is a feed entry. LikesCount and CommentsCount are denormalized
// from the likes_post relation and the post's comments.
type Post struct {
	Id            ID
	AuthorId      ID
	Content       string
	MediaUrls     []string // First element is the cover image
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LikesCount    int
	CommentsCount int
}

// CoverImage returns the first media URL or "".
func (p *Post) CoverImage() string {
	if len(p.MediaUrls) == 0 {
		return ""
	}
	return p.MediaUrls[0]
}

// Comment belongs to a post. LikesCount is denormalized from likes_comment.
type Comment struct {
	Id         ID
	PostId     ID
	AuthorId   ID
	Content    string
	CreatedAt  time.Time
	LikesCount int
}

// SessionUser is the identity supplied by the auth/session provider.
type SessionUser struct {
	Id           ID
	Name         string
	Username     string
	ProfileImage string
}

// ToggleResult is the state of a relation after a toggle or set.
type ToggleResult struct {
	// Active reports whether the pair is present after the operation.
	Active bool
	// Count is the likes counter for like relations and the relation
	// cardinality restricted to the target for saves and follows.
	Count int
	// TargetFound is false when the target entity does not exist. The
	// relation is still updated in that case.
	TargetFound bool
}

// Checkpoint records how far a maintenance processor got.
type Checkpoint struct {
	ProcessorType string
	LastId        ID
	UpdatedAt     time.Time
}
