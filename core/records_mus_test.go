package core

import (
	"errors"
	"testing"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeFields writes a version prefix followed by raw fields, the way an
// older or newer writer would.
func encodeFields(version uint64, fields ...any) []byte {
	size := varint.Uint64.Size(version)
	for _, f := range fields {
		switch v := f.(type) {
		case uint64:
			size += varint.Uint64.Size(v)
		case int64:
			size += varint.Int64.Size(v)
		case string:
			size += ord.String.Size(v)
		}
	}
	bs := make([]byte, size)
	n := varint.Uint64.Marshal(version, bs)
	for _, f := range fields {
		switch v := f.(type) {
		case uint64:
			n += varint.Uint64.Marshal(v, bs[n:])
		case int64:
			n += varint.Int64.Marshal(v, bs[n:])
		case string:
			n += ord.String.Marshal(v, bs[n:])
		}
	}
	return bs
}

func TestPostMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	post := Post{
		Id:            102,
		AuthorId:      2,
		Content:       "Thor is a playful pup ready for adventure!",
		MediaUrls:     []string{"https://example.com/thor.jpg", "https://example.com/thor2.jpg"},
		CreatedAt:     now,
		UpdatedAt:     now,
		LikesCount:    8,
		CommentsCount: 1,
	}

	bs := make([]byte, PostMUS.Size(post))
	n := PostMUS.Marshal(post, bs)
	require.Equal(t, len(bs), n)

	decoded, m, err := PostMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, post, decoded)
}

func TestUserMUS_ZeroTimesStayZero(t *testing.T) {
	user := User{Id: 1, Username: "alice"}

	bs := make([]byte, UserMUS.Size(user))
	UserMUS.Marshal(user, bs)

	decoded, _, err := UserMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.True(t, decoded.CreatedAt.IsZero())
	assert.Nil(t, decoded.AchievementBadges)
}

func TestPostMUS_OlderWriterDefaultsMissingFields(t *testing.T) {
	// Only id, author and content were written.
	bs := encodeFields(SchemaVersion, uint64(101), uint64(1), "Meet Luna!")

	decoded, n, err := PostMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), n)
	assert.Equal(t, ID(101), decoded.Id)
	assert.Equal(t, ID(1), decoded.AuthorId)
	assert.Equal(t, "Meet Luna!", decoded.Content)
	assert.Empty(t, decoded.MediaUrls)
	assert.True(t, decoded.CreatedAt.IsZero())
	assert.Zero(t, decoded.LikesCount)
	assert.Zero(t, decoded.CommentsCount)
}

func TestCommentMUS_NewerWriterTrailingFieldsIgnored(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	bs := encodeFields(SchemaVersion+1,
		uint64(500), uint64(101), uint64(7), "Cute!", created.UnixMicro(), int64(3),
		"a field this reader does not know")

	decoded, n, err := CommentMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), n)
	assert.Equal(t, Comment{
		Id:         500,
		PostId:     101,
		AuthorId:   7,
		Content:    "Cute!",
		CreatedAt:  created,
		LikesCount: 3,
	}, decoded)
}

func TestRecordMUS_Malformed(t *testing.T) {
	comment := Comment{Id: 1, PostId: 2, AuthorId: 3, Content: "a long enough comment"}
	full := make([]byte, CommentMUS.Size(comment))
	CommentMUS.Marshal(comment, full)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty data", []byte{}, nil},
		{"zero version", encodeFields(0, uint64(1)), ErrUnknownSchema},
		{"cut inside content", full[:len(full)-8], nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := CommentMUS.Unmarshal(tt.data)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			}
		})
	}
}

func TestStringsField_ImpossibleLength(t *testing.T) {
	// id, owner, name, breed, type, then a photo count far larger than the input.
	bs := encodeFields(SchemaVersion, uint64(1), uint64(2), "Rex", "", "dog", uint64(1000))

	_, _, err := PetMUS.Unmarshal(bs)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestIDMUS(t *testing.T) {
	for _, id := range []ID{0, 1, 501, ID(^uint64(0))} {
		bs := make([]byte, IDMUS.Size(id))
		IDMUS.Marshal(id, bs)

		decoded, n, err := IDMUS.Unmarshal(bs)
		require.NoError(t, err)
		assert.Equal(t, len(bs), n)
		assert.Equal(t, id, decoded)
	}
}
