package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// SchemaVersion is written ahead of the fields of every persisted record.
//
// Readers decode fields in declaration order. A record that ends on a field
// boundary leaves the remaining fields at their zero values, and fields
// appended by a newer writer are skipped, so fields may only ever be added
// at the end of a record.
const SchemaVersion uint64 = 1

// Serializers for persisted records.
var (
	IDMUS         mus.Serializer[ID]         = idSer{}
	UserMUS       mus.Serializer[User]       = recordSer[User]{visit: visitUser}
	PetMUS        mus.Serializer[Pet]        = recordSer[Pet]{visit: visitPet}
	PostMUS       mus.Serializer[Post]       = recordSer[Post]{visit: visitPost}
	CommentMUS    mus.Serializer[Comment]    = recordSer[Comment]{visit: visitComment}
	CheckpointMUS mus.Serializer[Checkpoint] = recordSer[Checkpoint]{visit: visitCheckpoint}
)

func visitUser(v fieldVisitor, u *User) {
	_ = v.ID(&u.Id) &&
		v.String(&u.Name) &&
		v.String(&u.Username) &&
		v.String(&u.ProfileImage) &&
		v.String(&u.Bio) &&
		v.String(&u.Website) &&
		v.String(&u.City) &&
		v.Int(&u.Points) &&
		v.Int(&u.Level) &&
		v.Strings(&u.AchievementBadges) &&
		v.Time(&u.CreatedAt) &&
		v.Time(&u.UpdatedAt)
}

func visitPet(v fieldVisitor, p *Pet) {
	_ = v.ID(&p.Id) &&
		v.ID(&p.OwnerId) &&
		v.String(&p.Name) &&
		v.String(&p.Breed) &&
		v.String(&p.Type) &&
		v.Strings(&p.Photos) &&
		v.Time(&p.CreatedAt) &&
		v.Time(&p.UpdatedAt)
}

func visitPost(v fieldVisitor, p *Post) {
	_ = v.ID(&p.Id) &&
		v.ID(&p.AuthorId) &&
		v.String(&p.Content) &&
		v.Strings(&p.MediaUrls) &&
		v.Time(&p.CreatedAt) &&
		v.Time(&p.UpdatedAt) &&
		v.Int(&p.LikesCount) &&
		v.Int(&p.CommentsCount)
}

func visitComment(v fieldVisitor, c *Comment) {
	_ = v.ID(&c.Id) &&
		v.ID(&c.PostId) &&
		v.ID(&c.AuthorId) &&
		v.String(&c.Content) &&
		v.Time(&c.CreatedAt) &&
		v.Int(&c.LikesCount)
}

func visitCheckpoint(v fieldVisitor, c *Checkpoint) {
	_ = v.String(&c.ProcessorType) &&
		v.ID(&c.LastId) &&
		v.Time(&c.UpdatedAt)
}

// fieldVisitor walks the fields of a record. Each method returns false to
// stop the walk.
type fieldVisitor interface {
	ID(*ID) bool
	Int(*int) bool
	String(*string) bool
	Strings(*[]string) bool
	Time(*time.Time) bool
}

type recordSer[T any] struct {
	visit func(fieldVisitor, *T)
}

func (s recordSer[T]) Size(t T) int {
	sz := &fieldSizer{n: varint.Uint64.Size(SchemaVersion)}
	s.visit(sz, &t)
	return sz.n
}

func (s recordSer[T]) Marshal(t T, bs []byte) int {
	w := &fieldWriter{bs: bs}
	w.n = varint.Uint64.Marshal(SchemaVersion, bs)
	s.visit(w, &t)
	return w.n
}

func (s recordSer[T]) Unmarshal(bs []byte) (t T, n int, err error) {
	version, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return t, n, err
	}
	if version == 0 {
		return t, n, ErrUnknownSchema
	}
	r := &fieldReader{bs: bs, n: n}
	s.visit(r, &t)
	if r.err != nil {
		return t, r.n, r.err
	}
	if version > SchemaVersion {
		// Fields from a newer writer
		r.n = len(bs)
	}
	return t, r.n, nil
}

func (s recordSer[T]) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type idSer struct{}

func (idSer) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idSer) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idSer) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idSer) Skip(bs []byte) (int, error) {
	_, n, err := varint.Uint64.Unmarshal(bs)
	return n, err
}

// Times are stored as unix microseconds; 0 is the zero time.
func encodeTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func decodeTime(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

type fieldSizer struct {
	n int
}

func (s *fieldSizer) ID(v *ID) bool {
	s.n += varint.Uint64.Size(uint64(*v))
	return true
}

func (s *fieldSizer) Int(v *int) bool {
	s.n += varint.Int64.Size(int64(*v))
	return true
}

func (s *fieldSizer) String(v *string) bool {
	s.n += ord.String.Size(*v)
	return true
}

func (s *fieldSizer) Strings(v *[]string) bool {
	s.n += varint.Uint64.Size(uint64(len(*v)))
	for _, str := range *v {
		s.n += ord.String.Size(str)
	}
	return true
}

func (s *fieldSizer) Time(v *time.Time) bool {
	s.n += varint.Int64.Size(encodeTime(*v))
	return true
}

type fieldWriter struct {
	bs []byte
	n  int
}

func (w *fieldWriter) ID(v *ID) bool {
	w.n += varint.Uint64.Marshal(uint64(*v), w.bs[w.n:])
	return true
}

func (w *fieldWriter) Int(v *int) bool {
	w.n += varint.Int64.Marshal(int64(*v), w.bs[w.n:])
	return true
}

func (w *fieldWriter) String(v *string) bool {
	w.n += ord.String.Marshal(*v, w.bs[w.n:])
	return true
}

func (w *fieldWriter) Strings(v *[]string) bool {
	w.n += varint.Uint64.Marshal(uint64(len(*v)), w.bs[w.n:])
	for _, str := range *v {
		w.n += ord.String.Marshal(str, w.bs[w.n:])
	}
	return true
}

func (w *fieldWriter) Time(v *time.Time) bool {
	w.n += varint.Int64.Marshal(encodeTime(*v), w.bs[w.n:])
	return true
}

// fieldReader stops without error when the input ends on a field boundary.
type fieldReader struct {
	bs  []byte
	n   int
	err error
}

func (r *fieldReader) more() bool {
	return r.err == nil && r.n < len(r.bs)
}

func (r *fieldReader) fail(err error) bool {
	r.err = err
	return false
}

func (r *fieldReader) ID(v *ID) bool {
	if !r.more() {
		return false
	}
	u, n, err := varint.Uint64.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		return r.fail(err)
	}
	*v = ID(u)
	return true
}

func (r *fieldReader) Int(v *int) bool {
	if !r.more() {
		return false
	}
	i, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		return r.fail(err)
	}
	*v = int(i)
	return true
}

func (r *fieldReader) String(v *string) bool {
	if !r.more() {
		return false
	}
	str, n, err := ord.String.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		return r.fail(err)
	}
	*v = str
	return true
}

func (r *fieldReader) Strings(v *[]string) bool {
	if !r.more() {
		return false
	}
	length, n, err := varint.Uint64.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		return r.fail(err)
	}
	// Every element takes at least one byte.
	if length > uint64(len(r.bs)-r.n) {
		return r.fail(ErrMalformedRecord)
	}
	var out []string
	if length > 0 {
		out = make([]string, 0, length)
	}
	for i := uint64(0); i < length; i++ {
		str, n, err := ord.String.Unmarshal(r.bs[r.n:])
		r.n += n
		if err != nil {
			return r.fail(err)
		}
		out = append(out, str)
	}
	*v = out
	return true
}

func (r *fieldReader) Time(v *time.Time) bool {
	if !r.more() {
		return false
	}
	micros, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		return r.fail(err)
	}
	*v = decodeTime(micros)
	return true
}
