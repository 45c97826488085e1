package badger

import (
	"bytes"
	"encoding/binary"
	"strings"
	"time"

	"github.com/poiesic/pawgraph/core"
)

// Collection names and key prefixes for different data types
const (
	usersCollection    = "users"
	petsCollection     = "pets"
	postsCollection    = "posts"
	commentsCollection = "comments"
	userNamePrefix     = "userna"
	petOwnerPrefix     = "petown"
	postDatePrefix     = "postdt"
	postAuthorPrefix   = "postau"
	commentPostPrefix  = "cmtpst"
	relationPrefix     = "rel"
	checkpointPrefix   = "chkpt"
	userIDSeq          = "usrseq"
	schemaKey          = "meta:schema"
)

// makeKey generates prefix:part1part2... with each part as 8 big-endian
// bytes so lexicographic order matches numeric order.
func makeKey(prefix string, parts ...uint64) []byte {
	buf := make([]byte, 0, len(prefix)+1+8*len(parts))
	buf = append(buf, prefix...)
	buf = append(buf, ':')
	for _, part := range parts {
		buf = binary.BigEndian.AppendUint64(buf, part)
	}
	return buf
}

// maxKeySuffix is longer than any composite ID suffix we write.
var maxKeySuffix = bytes.Repeat([]byte{0xFF}, 32)

// prefixEnd returns a key that sorts after every key starting with prefix.
// Used to seek reverse iterators.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, 0, len(prefix)+len(maxKeySuffix))
	end = append(end, prefix...)
	return append(end, maxKeySuffix...)
}

// trailingID extracts the ID stored in the last 8 bytes of a key.
func trailingID(key []byte) core.ID {
	if len(key) < 8 {
		return 0
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

func micros(t time.Time) uint64 {
	return uint64(t.UnixMicro())
}

// makeUserNameKey generates the username lookup key.
// Usernames are unique regardless of case.
func makeUserNameKey(username string) []byte {
	return []byte(userNamePrefix + ":" + strings.ToLower(strings.TrimSpace(username)))
}

// makePetOwnerKey generates a composite key for the owner index.
// Format: prefix:ownerID:petID
func makePetOwnerKey(ownerID, petID core.ID) []byte {
	return makeKey(petOwnerPrefix, uint64(ownerID), uint64(petID))
}

// makePostDateKey generates a composite key for the feed order index.
// Format: prefix:createdAt:postID
func makePostDateKey(createdAt time.Time, postID core.ID) []byte {
	return makeKey(postDatePrefix, micros(createdAt), uint64(postID))
}

// makePostAuthorKey generates a composite key for the author index.
// Format: prefix:authorID:createdAt:postID
func makePostAuthorKey(authorID core.ID, createdAt time.Time, postID core.ID) []byte {
	return makeKey(postAuthorPrefix, uint64(authorID), micros(createdAt), uint64(postID))
}

// makeCommentPostKey generates a composite key for the thread index.
// Format: prefix:postID:createdAt:commentID
func makeCommentPostKey(postID core.ID, createdAt time.Time, commentID core.ID) []byte {
	return makeKey(commentPostPrefix, uint64(postID), micros(createdAt), uint64(commentID))
}

// makeRelationPrefixes returns the forward and reverse key prefixes of a relation.
// Forward keys are rel:name:f:a:b and reverse keys rel:name:r:b:a.
func makeRelationPrefixes(rel core.Relation) (forward, reverse string) {
	base := relationPrefix + ":" + rel.Name()
	return base + ":f", base + ":r"
}

// makeCheckpointKey generates a key for processor checkpoints.
// Format: chkpt:processorType
func makeCheckpointKey(processorType string) []byte {
	return []byte(checkpointPrefix + ":" + processorType)
}

// stamp normalizes t to the precision records are persisted with.
// A zero t means now.
func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return now()
	}
	return t.UTC().Truncate(time.Microsecond)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
