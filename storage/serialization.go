// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go"
	"github.com/poiesic/pawgraph/core"
)

// Codec converts one record type to and from its persisted form.
type Codec[T any] interface {
	Marshal(record *T) []byte
	Unmarshal(data []byte) (*T, error)
}

// musCodec adapts a mus serializer to Codec.
type musCodec[T any] struct {
	ser mus.Serializer[T]
}

// NewCodec returns a Codec backed by a mus serializer.
func NewCodec[T any](ser mus.Serializer[T]) Codec[T] {
	return musCodec[T]{ser: ser}
}

func (c musCodec[T]) Marshal(record *T) []byte {
	buf := make([]byte, c.ser.Size(*record))
	c.ser.Marshal(*record, buf)
	return buf
}

func (c musCodec[T]) Unmarshal(data []byte) (*T, error) {
	record, _, err := c.ser.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// Codecs for every persisted record type.
var (
	UserCodec       = NewCodec(core.UserMUS)
	PetCodec        = NewCodec(core.PetMUS)
	PostCodec       = NewCodec(core.PostMUS)
	CommentCodec    = NewCodec(core.CommentMUS)
	CheckpointCodec = NewCodec(core.CheckpointMUS)
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return id, nil
}
